// Package components contains the collaborators the processing service is
// assembled from. Each component owns one step of the expense pipeline and
// is mockable behind the service interfaces.
package components

import (
	"context"
	"log/slog"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/processor/service"
)

type ExpenseValidatorImpl struct {
	expenseRepo expense.Repository
	logger      *slog.Logger
}

func NewExpenseValidator(expenseRepo expense.Repository, logger *slog.Logger) service.ExpenseValidator {
	return &ExpenseValidatorImpl{
		expenseRepo: expenseRepo,
		logger:      logger,
	}
}

// Validate loads the authoritative expense row and decides whether the
// request is current. The message only carries identity; everything about
// the split comes from the store.
func (v *ExpenseValidatorImpl) Validate(ctx context.Context, request *shared.ExpenseRequest) (*expense.Expense, bool, error) {
	exp, err := v.expenseRepo.GetByID(ctx, request.ExpenseID)
	if err != nil {
		return nil, false, err
	}

	if request.Revision < exp.Revision {
		// A later edit superseded this request; its own message regenerates.
		v.logger.Info("Expense request revision is stale",
			"expense_id", exp.ID.String(),
			"request_revision", request.Revision,
			"current_revision", exp.Revision,
		)
		return nil, true, nil
	}

	if exp.Status == shared.ExpenseStatusProcessed {
		// Redelivery of an already handled request.
		v.logger.Info("Expense already processed, skipping",
			"expense_id", exp.ID.String(),
			"revision", exp.Revision,
		)
		return nil, true, nil
	}

	return exp, false, nil
}
