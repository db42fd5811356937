package expense

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// Repository defines expense persistence operations
type Repository interface {
	Create(ctx context.Context, exp *Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// Update persists an edited expense and replaces its participant rows.
	// Uses optimistic locking on Revision: the row is only updated when the
	// stored revision is Revision-1.
	Update(ctx context.Context, exp *Expense) error

	// SetStatus records the processing outcome for an expense
	SetStatus(ctx context.Context, id uuid.UUID, status shared.ExpenseStatus, failureReason string) error

	// SaveShares persists the computed split shares for an expense's participants
	SaveShares(ctx context.Context, expenseID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error

	WithTx(tx pgx.Tx) Repository
}

// ErrExpenseNotFound indicates missing expense
type ErrExpenseNotFound struct {
	ExpenseID uuid.UUID
}

func (e ErrExpenseNotFound) Error() string {
	return "expense not found: " + e.ExpenseID.String()
}

// Is implements the errors.Is interface for ErrExpenseNotFound
func (e ErrExpenseNotFound) Is(target error) bool {
	t, ok := target.(ErrExpenseNotFound)
	if !ok {
		return false
	}
	if t.ExpenseID == uuid.Nil {
		return true
	}
	return e.ExpenseID == t.ExpenseID
}

// ErrConcurrentRevision indicates an optimistic lock failure on expense update
type ErrConcurrentRevision struct {
	ExpenseID uuid.UUID
}

func (e ErrConcurrentRevision) Error() string {
	return "concurrent revision detected for expense: " + e.ExpenseID.String()
}

// Is implements the errors.Is interface for ErrConcurrentRevision
func (e ErrConcurrentRevision) Is(target error) bool {
	t, ok := target.(ErrConcurrentRevision)
	if !ok {
		return false
	}
	if t.ExpenseID == uuid.Nil {
		return true
	}
	return e.ExpenseID == t.ExpenseID
}
