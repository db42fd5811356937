package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// ProcessingService defines the interface for processing expense requests
type ProcessingService interface {
	ProcessExpense(ctx context.Context, request *shared.ExpenseRequest) error
}

// ExpenseValidator loads the authoritative expense for a request and decides
// whether it should be processed. skip is true for stale or already handled
// requests; those acknowledge without touching anything.
type ExpenseValidator interface {
	Validate(ctx context.Context, request *shared.ExpenseRequest) (exp *expense.Expense, skip bool, err error)
}

// DebtWriter persists a generation run: superseding the previous debts,
// saving computed shares, inserting the new debts, and marking the expense
// processed, all on the supplied transaction
type DebtWriter interface {
	WriteDebts(ctx context.Context, tx pgx.Tx, exp *expense.Expense, shares map[uuid.UUID]decimal.Decimal, debts []*debt.Debt) error
}

// FailureRecorder marks an expense failed with a reason
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.ExpenseRequest, failureReason string) error
}
