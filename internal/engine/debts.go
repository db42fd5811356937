package engine

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
)

// GenerateDebts turns computed shares into one debt per non-payer
// participant, directed participant -> payer. The payer's own share (when
// participating) is simply dropped; paying yourself is not a debt.
// Zero-amount shares produce no debt. Output is ordered by debtor ID so
// repeated generation yields the same sequence.
func (c *Calculator) GenerateDebts(exp *expense.Expense, shares map[uuid.UUID]decimal.Decimal) ([]*debt.Debt, error) {
	currency := c.Currency(exp)

	userIDs := make([]uuid.UUID, 0, len(shares))
	for userID := range shares {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool {
		return userIDs[i].String() < userIDs[j].String()
	})

	debts := make([]*debt.Debt, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID == exp.PayerID {
			continue
		}
		share := shares[userID]
		if share.IsZero() {
			continue
		}
		expenseID := exp.ID
		d, err := debt.NewDebt(exp.NexID, &expenseID, userID, exp.PayerID, share, currency)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, nil
}
