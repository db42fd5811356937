package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/engine"
)

// ExpenseEdit carries the replacement definition for an expense revision
type ExpenseEdit struct {
	PayerID           uuid.UUID
	Amount            decimal.Decimal
	Currency          string
	SplitPolicy       shared.SplitPolicy
	PayerParticipates bool
	Participants      []expense.Participant
}

// NexPosition is one user's net position within a single nex, used for the
// cross-nex balance view
type NexPosition struct {
	NexID    uuid.UUID
	Net      decimal.Decimal
	Currency string
}

// ExpenseService defines the interface for expense operations
type ExpenseService interface {
	// CreateExpense persists a PENDING expense and publishes it for
	// asynchronous debt generation
	CreateExpense(ctx context.Context, exp *expense.Expense, correlationID string) error

	// ReviseExpense applies an edit, bumps the revision, and publishes a
	// recalculation request. Returns ErrExpenseNotFound if the expense
	// doesn't exist and ErrConcurrentRevision on a lost optimistic-lock race.
	ReviseExpense(ctx context.Context, expenseID uuid.UUID, edit ExpenseEdit, correlationID string) (*expense.Expense, error)

	// GetExpenseByID retrieves an expense by its ID. Returns nil if not found.
	GetExpenseByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error)
}

// SettlementService defines the interface for balance and settlement operations
type SettlementService interface {
	// GetNexBalances computes the net position of every user in a nex from
	// its outstanding debts
	GetNexBalances(ctx context.Context, nexID uuid.UUID) ([]engine.Balance, error)

	// GetUserBalances computes a user's net position in every nex where they
	// hold outstanding debts or credits
	GetUserBalances(ctx context.Context, userID uuid.UUID) ([]NexPosition, error)

	// PlanSettlements projects the outstanding debts of a nex into proposed
	// settlement transactions. Plans are never persisted.
	PlanSettlements(ctx context.Context, nexID uuid.UUID, mode shared.SettlementMode) ([]*settlement.Transaction, error)

	// ExecuteSettlements settles the selected planned transactions atomically
	// against live debt state and returns a per-transaction report
	ExecuteSettlements(ctx context.Context, nexID uuid.UUID, mode shared.SettlementMode, selection settlement.Selection, paymentMethod, notes, correlationID string) (*settlement.ExecutionReport, error)

	// GetHistory retrieves paginated settlement history for a nex.
	// Returns entries, total count, and any error.
	GetHistory(ctx context.Context, nexID uuid.UUID, page, perPage int) ([]*settlement.Entry, int64, error)
}
