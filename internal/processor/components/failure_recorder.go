package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/processor/service"
)

type FailureRecorderImpl struct {
	expenseRepo expense.Repository
	logger      *slog.Logger
}

func NewFailureRecorder(expenseRepo expense.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		expenseRepo: expenseRepo,
		logger:      logger,
	}
}

// RecordFailure marks the expense FAILED with the given reason. A missing
// expense row is logged and swallowed; there is nothing left to mark.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.ExpenseRequest, failureReason string) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Recording failed expense", "expense_id", request.ExpenseID.String(), "reason", failureReason)

	err := r.expenseRepo.SetStatus(ctx, request.ExpenseID, shared.ExpenseStatusFailed, failureReason)
	if err != nil {
		if errors.Is(err, expense.ErrExpenseNotFound{}) {
			logger.Error("Expense disappeared before failure could be recorded", "expense_id", request.ExpenseID.String())
			return nil
		}
		logger.Error("Failed to record expense failure", "expense_id", request.ExpenseID.String(), "error", err)
		return err
	}

	return nil
}
