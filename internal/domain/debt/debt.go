package debt

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// Common errors
var (
	ErrSelfDebt        = errors.New("debtor and creditor cannot be the same user")
	ErrInvalidAmount   = errors.New("debt amount must be positive with at most 2 decimal places")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
)

// Debt is a directed, amount-bearing obligation from one user to another.
// ExpenseID is nil for ad-hoc settlement records. A debt is terminal once
// SettledAt is set; editing or deleting the parent expense soft-voids it via
// SupersededAt rather than removing the row, preserving settlement audit
// history.
type Debt struct {
	ID            uuid.UUID       `json:"id"`
	NexID         uuid.UUID       `json:"nex_id"`
	ExpenseID     *uuid.UUID      `json:"expense_id,omitempty"`
	DebtorID      uuid.UUID       `json:"debtor_id"`
	CreditorID    uuid.UUID       `json:"creditor_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	SettledAt     *time.Time      `json:"settled_at,omitempty"`
	SupersededAt  *time.Time      `json:"superseded_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewDebt creates an outstanding debt with the given parameters
func NewDebt(
	nexID uuid.UUID,
	expenseID *uuid.UUID,
	debtorID uuid.UUID,
	creditorID uuid.UUID,
	amount decimal.Decimal,
	currency string,
) (*Debt, error) {
	if debtorID == creditorID {
		return nil, ErrSelfDebt
	}
	if !amount.IsPositive() || !shared.ValidMoney(amount) {
		return nil, ErrInvalidAmount
	}
	if !shared.ValidCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	return &Debt{
		ID:         uuid.New(),
		NexID:      nexID,
		ExpenseID:  expenseID,
		DebtorID:   debtorID,
		CreditorID: creditorID,
		Amount:     amount,
		Currency:   currency,
		CreatedAt:  time.Now(),
	}, nil
}

// Outstanding reports whether the debt still counts toward balances
func (d *Debt) Outstanding() bool {
	return d.SettledAt == nil && d.SupersededAt == nil
}
