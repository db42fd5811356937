package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// Plan projects the outstanding debts of a nex into proposed settlement
// transactions. Plans are never persisted: the same debt state always
// produces the same transactions with the same deterministic IDs, so a stale
// client selection can be validated against a fresh plan at execution time.
func Plan(nexID uuid.UUID, mode shared.SettlementMode, debts []*debt.Debt) ([]*settlement.Transaction, error) {
	outstanding := make([]*debt.Debt, 0, len(debts))
	for _, d := range debts {
		if d.Outstanding() {
			outstanding = append(outstanding, d)
		}
	}
	if len(outstanding) == 0 {
		return nil, nil
	}

	switch mode {
	case shared.SettlementModeDetailed:
		return planDetailed(nexID, outstanding), nil
	case shared.SettlementModeSimplified:
		return planSimplified(nexID, outstanding)
	default:
		return nil, InvalidSplitError{Reason: "unknown settlement mode: " + string(mode)}
	}
}

// planDetailed maps each outstanding debt to exactly one transaction
func planDetailed(nexID uuid.UUID, debts []*debt.Debt) []*settlement.Transaction {
	sorted := make([]*debt.Debt, len(debts))
	copy(sorted, debts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	now := time.Now()
	txns := make([]*settlement.Transaction, 0, len(sorted))
	for _, d := range sorted {
		txns = append(txns, &settlement.Transaction{
			ID:             settlement.DetailedTransactionID(nexID, d.ID),
			NexID:          nexID,
			FromUserID:     d.DebtorID,
			ToUserID:       d.CreditorID,
			Amount:         d.Amount,
			Currency:       d.Currency,
			Mode:           shared.SettlementModeDetailed,
			Status:         shared.TransactionStatusPending,
			RelatedDebtIDs: []uuid.UUID{d.ID},
			CreatedAt:      now,
		})
	}
	return txns
}

// position is one user's remaining unsettled amount while a simplified plan
// is being built
type position struct {
	userID uuid.UUID
	amount decimal.Decimal
}

// largestPosition returns the index of the largest remaining position.
// Ties break by ascending user ID so selection does not depend on slice order.
func largestPosition(s []position) int {
	best := 0
	for i := 1; i < len(s); i++ {
		cmp := s[i].amount.Cmp(s[best].amount)
		if cmp > 0 || (cmp == 0 && s[i].userID.String() < s[best].userID.String()) {
			best = i
		}
	}
	return best
}

// planSimplified minimizes transfer count with a greedy pairing: each round
// the creditor and debtor with the largest remaining positions exchange the
// smaller of the two. The maximum is re-selected every round, so a partial
// settle never pins its leftover party against a strictly larger one. This
// yields at most n-1 transfers for n users with nonzero positions and is a
// pure function of debt state.
func planSimplified(nexID uuid.UUID, debts []*debt.Debt) ([]*settlement.Transaction, error) {
	net := NetBalances(debts)
	if err := CheckConservation(nexID, net); err != nil {
		return nil, err
	}
	if len(net) == 0 {
		return nil, nil
	}

	creditors := make([]position, 0, len(net))
	debtors := make([]position, 0, len(net))
	for userID, amount := range net {
		if amount.IsPositive() {
			creditors = append(creditors, position{userID, amount})
		} else {
			debtors = append(debtors, position{userID, amount.Neg()})
		}
	}

	currency := debts[0].Currency
	now := time.Now()
	var txns []*settlement.Transaction
	for len(creditors) > 0 && len(debtors) > 0 {
		ci := largestPosition(creditors)
		di := largestPosition(debtors)
		cred := &creditors[ci]
		debtor := &debtors[di]

		amount := decimal.Min(cred.amount, debtor.amount)
		txns = append(txns, &settlement.Transaction{
			ID:             settlement.SimplifiedTransactionID(nexID, debtor.userID, cred.userID),
			NexID:          nexID,
			FromUserID:     debtor.userID,
			ToUserID:       cred.userID,
			Amount:         amount,
			Currency:       currency,
			Mode:           shared.SettlementModeSimplified,
			Status:         shared.TransactionStatusPending,
			RelatedDebtIDs: relatedDebts(debtor.userID, cred.userID, amount, debts),
			CreatedAt:      now,
		})

		cred.amount = cred.amount.Sub(amount)
		debtor.amount = debtor.amount.Sub(amount)
		if cred.amount.IsZero() {
			creditors = append(creditors[:ci], creditors[ci+1:]...)
		}
		if debtor.amount.IsZero() {
			debtors = append(debtors[:di], debtors[di+1:]...)
		}
	}
	return txns, nil
}

// relatedDebts collects outstanding debt IDs whose settlement a transfer
// from -> to can be applied against, until their sum covers the transfer
// amount. Direct debts between the pair come first, then the payer's debts
// to other creditors, each group oldest first. The transfer amount never
// exceeds the debtor's net position, which never exceeds the debtor's gross
// owed, so the two groups always cover it.
func relatedDebts(fromUserID, toUserID uuid.UUID, amount decimal.Decimal, debts []*debt.Debt) []uuid.UUID {
	sorted := make([]*debt.Debt, len(debts))
	copy(sorted, debts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	var ids []uuid.UUID
	covered := decimal.Zero
	add := func(match func(*debt.Debt) bool) {
		for _, d := range sorted {
			if covered.GreaterThanOrEqual(amount) {
				return
			}
			if !match(d) || containsID(ids, d.ID) {
				continue
			}
			ids = append(ids, d.ID)
			covered = covered.Add(d.Amount)
		}
	}

	add(func(d *debt.Debt) bool { return d.DebtorID == fromUserID && d.CreditorID == toUserID })
	add(func(d *debt.Debt) bool { return d.DebtorID == fromUserID })
	return ids
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
