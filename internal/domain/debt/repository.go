package debt

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines debt persistence operations. Outstanding means
// settled_at IS NULL AND superseded_at IS NULL; settlement mutations are
// conditional updates so that losing a race surfaces as
// ErrDebtAlreadySettled rather than a silent double-settle.
type Repository interface {
	CreateBatch(ctx context.Context, debts []*Debt) error
	GetByID(ctx context.Context, id uuid.UUID) (*Debt, error)
	ListOutstandingByNex(ctx context.Context, nexID uuid.UUID) ([]*Debt, error)
	ListOutstandingByUser(ctx context.Context, userID uuid.UUID) ([]*Debt, error)

	// SupersedeByExpense soft-voids all outstanding debts generated for an
	// expense, ahead of regeneration from a new split set
	SupersedeByExpense(ctx context.Context, expenseID uuid.UUID, at time.Time) error

	// MarkSettled settles a debt in full. The update is conditional on the
	// debt still being outstanding.
	MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time, paymentMethod, notes string) error

	// SplitSettled settles a portion of a debt: the live row's amount is
	// reduced and the covered portion is inserted as a new settled debt
	// record, keeping the audit trail intact. Returns the settled record's ID.
	SplitSettled(ctx context.Context, id uuid.UUID, portion decimal.Decimal, settledAt time.Time, paymentMethod, notes string) (uuid.UUID, error)

	// LockNex acquires the per-nex advisory lock serializing settlement
	// execution. Must be called within a transaction; the lock is released
	// on commit or rollback.
	LockNex(ctx context.Context, nexID uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}

// ErrDebtNotFound indicates missing debt
type ErrDebtNotFound struct {
	DebtID uuid.UUID
}

func (e ErrDebtNotFound) Error() string {
	return "debt not found: " + e.DebtID.String()
}

// Is implements the errors.Is interface for ErrDebtNotFound
func (e ErrDebtNotFound) Is(target error) bool {
	t, ok := target.(ErrDebtNotFound)
	if !ok {
		return false
	}
	if t.DebtID == uuid.Nil {
		return true
	}
	return e.DebtID == t.DebtID
}

// ErrDebtAlreadySettled indicates a conditional settlement update matched no
// rows: the debt was settled or superseded by a concurrent execution
type ErrDebtAlreadySettled struct {
	DebtID uuid.UUID
}

func (e ErrDebtAlreadySettled) Error() string {
	return "debt already settled or superseded: " + e.DebtID.String()
}

// Is implements the errors.Is interface for ErrDebtAlreadySettled
func (e ErrDebtAlreadySettled) Is(target error) bool {
	t, ok := target.(ErrDebtAlreadySettled)
	if !ok {
		return false
	}
	if t.DebtID == uuid.Nil {
		return true
	}
	return e.DebtID == t.DebtID
}
