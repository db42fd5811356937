package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/messaging/producers"
)

// ExpenseServiceImpl implements the ExpenseService interface
type ExpenseServiceImpl struct {
	expenseRepo expense.Repository
	producer    producers.MessagePublisher
	logger      *slog.Logger
}

// NewExpenseService creates a new expense service
func NewExpenseService(logger *slog.Logger, expenseRepo expense.Repository, producer producers.MessagePublisher) ExpenseService {
	return &ExpenseServiceImpl{
		expenseRepo: expenseRepo,
		producer:    producer,
		logger:      logger,
	}
}

// CreateExpense persists a PENDING expense and publishes a processing request.
// Messages are keyed by nex ID so all requests of a nex land on one partition
// and debt generation stays ordered per nex.
func (s *ExpenseServiceImpl) CreateExpense(ctx context.Context, exp *expense.Expense, correlationID string) error {
	if err := s.expenseRepo.Create(ctx, exp); err != nil {
		s.logger.Error("Failed to persist expense", "expense_id", exp.ID.String(), "error", err)
		return err
	}

	request := &shared.ExpenseRequest{
		RequestID:     uuid.New(),
		Kind:          shared.RequestKindCreate,
		ExpenseID:     exp.ID,
		NexID:         exp.NexID,
		Revision:      exp.Revision,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
	if err := s.producer.Publish(ctx, exp.NexID.String(), request); err != nil {
		s.logger.Error("Failed to publish expense request",
			"expense_id", exp.ID.String(),
			"nex_id", exp.NexID.String(),
			"error", err,
		)
		return err
	}

	s.logger.Info("Expense request published",
		"expense_id", exp.ID.String(),
		"nex_id", exp.NexID.String(),
		"split_policy", string(exp.SplitPolicy),
	)
	return nil
}

// ReviseExpense applies an edit and publishes a recalculation request. The
// revision bump happens under optimistic locking: losing the race surfaces
// as ErrConcurrentRevision instead of silently overwriting a parallel edit.
func (s *ExpenseServiceImpl) ReviseExpense(ctx context.Context, expenseID uuid.UUID, edit ExpenseEdit, correlationID string) (*expense.Expense, error) {
	exp, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		if !errors.Is(err, expense.ErrExpenseNotFound{}) {
			s.logger.Error("Failed to load expense for revision", "expense_id", expenseID.String(), "error", err)
		}
		return nil, err
	}

	if err := exp.Revise(
		edit.PayerID,
		edit.Amount,
		edit.Currency,
		edit.SplitPolicy,
		edit.PayerParticipates,
		edit.Participants,
	); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Update(ctx, exp); err != nil {
		if errors.Is(err, expense.ErrConcurrentRevision{}) {
			s.logger.Info("Concurrent revision detected", "expense_id", expenseID.String())
		} else {
			s.logger.Error("Failed to update expense", "expense_id", expenseID.String(), "error", err)
		}
		return nil, err
	}

	request := &shared.ExpenseRequest{
		RequestID:     uuid.New(),
		Kind:          shared.RequestKindRecalculate,
		ExpenseID:     exp.ID,
		NexID:         exp.NexID,
		Revision:      exp.Revision,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
	if err := s.producer.Publish(ctx, exp.NexID.String(), request); err != nil {
		s.logger.Error("Failed to publish recalculation request",
			"expense_id", exp.ID.String(),
			"revision", exp.Revision,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Recalculation request published",
		"expense_id", exp.ID.String(),
		"revision", exp.Revision,
	)
	return exp, nil
}

// GetExpenseByID retrieves an expense by its ID. Returns nil if not found.
func (s *ExpenseServiceImpl) GetExpenseByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	exp, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, expense.ErrExpenseNotFound{}) {
			s.logger.Info("Expense not found", "expense_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get expense by ID", "expense_id", id.String(), "error", err)
		return nil, err
	}
	return exp, nil
}
