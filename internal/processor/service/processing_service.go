package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/engine"
	"github.com/bhanuka-viraj/nexsplit/internal/metrics"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/persistence"
)

type ProcessingServiceImpl struct {
	beginTx         func(ctx context.Context) (pgx.Tx, error)
	validator       ExpenseValidator
	calculator      *engine.Calculator
	debtWriter      DebtWriter
	failureRecorder FailureRecorder
	logger          *slog.Logger
}

func NewProcessingService(
	pgDB *persistence.PostgresDB,
	validator ExpenseValidator,
	calculator *engine.Calculator,
	debtWriter DebtWriter,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		beginTx: func(ctx context.Context) (pgx.Tx, error) {
			return pgDB.Pool().Begin(ctx)
		},
		validator:       validator,
		calculator:      calculator,
		debtWriter:      debtWriter,
		failureRecorder: failureRecorder,
		logger:          logger,
	}
}

// ProcessExpense turns an expense request into debt rows. The split is
// computed outside the database transaction (it is pure); the supersede,
// share save, debt insert, and status flip commit atomically. Business
// failures acknowledge the message after recording the failure on the
// expense; infrastructure failures propagate so Kafka redelivers.
func (s *ProcessingServiceImpl) ProcessExpense(ctx context.Context, request *shared.ExpenseRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing expense request",
		"expense_id", request.ExpenseID.String(),
		"nex_id", request.NexID.String(),
		"kind", string(request.Kind),
		"revision", request.Revision,
	)

	exp, skip, err := s.validator.Validate(ctx, request)
	if err != nil {
		if errors.Is(err, expense.ErrExpenseNotFound{}) {
			// Nothing to record the failure on. Acknowledge; redelivery
			// cannot make the row appear.
			logger.Error("Expense not found for request", "expense_id", request.ExpenseID.String())
			metrics.ExpensesProcessed.WithLabelValues("failed").Inc()
			return nil
		}
		return err
	}
	if skip {
		logger.Info("Skipping expense request", "expense_id", request.ExpenseID.String(), "revision", request.Revision)
		metrics.ExpensesProcessed.WithLabelValues("skipped").Inc()
		return nil
	}

	shares, debts, err := s.generate(exp)
	if err != nil {
		// The split can never succeed for this revision, so record the
		// failure and acknowledge.
		logger.Error("Expense split failed", "expense_id", exp.ID.String(), "error", err)
		if recordErr := s.failureRecorder.RecordFailure(ctx, request, string(shared.FailureReasonInvalidSplit)); recordErr != nil {
			logger.Error("Failed to record split failure", "expense_id", exp.ID.String(), "error", recordErr)
		}
		metrics.ExpensesProcessed.WithLabelValues("failed").Inc()
		return nil
	}

	var tx pgx.Tx
	tx, err = s.beginTx(ctx)
	if err != nil {
		logger.Error("Failed to begin database transaction", "expense_id", exp.ID.String(), "error", err)
		return fmt.Errorf("failed to begin DB transaction for expense %s: %w", exp.ID.String(), err)
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered, rolling back transaction", "panic", p, "expense_id", exp.ID.String())
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error("Failed to rollback transaction after error", "rollback_error", rbErr, "original_error", err, "expense_id", exp.ID.String())
			}
		}
	}()

	if err = s.debtWriter.WriteDebts(ctx, tx, exp, shares, debts); err != nil {
		if errors.Is(err, expense.ErrConcurrentRevision{}) {
			// A later edit got there first. Its own request will regenerate.
			logger.Info("Expense superseded during processing, skipping", "expense_id", exp.ID.String())
			metrics.ExpensesProcessed.WithLabelValues("skipped").Inc()
			err = nil
			_ = tx.Rollback(ctx)
			return nil
		}
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit database transaction", "expense_id", exp.ID.String(), "error", err)
		return fmt.Errorf("failed to commit DB transaction for expense %s: %w", exp.ID.String(), err)
	}

	metrics.ExpensesProcessed.WithLabelValues("processed").Inc()
	metrics.DebtsCreated.Add(float64(len(debts)))
	logger.Info("Expense processed", "expense_id", exp.ID.String(), "debts", len(debts))
	return nil
}

func (s *ProcessingServiceImpl) generate(exp *expense.Expense) (map[uuid.UUID]decimal.Decimal, []*debt.Debt, error) {
	shares, err := s.calculator.ComputeSplits(exp)
	if err != nil {
		return nil, nil, err
	}
	debts, err := s.calculator.GenerateDebts(exp, shares)
	if err != nil {
		return nil, nil, err
	}
	return shares, debts, nil
}
