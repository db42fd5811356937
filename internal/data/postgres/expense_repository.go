// Package postgres provides PostgreSQL implementations of the domain
// repositories. All repositories are written against persistence.Querier so
// the same code runs on the pool or inside a transaction via WithTx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/persistence"
)

// ExpenseRepository implements the expense.Repository interface for PostgreSQL
type ExpenseRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewExpenseRepository creates a new PostgreSQL expense repository
func NewExpenseRepository(logger *slog.Logger, db *persistence.PostgresDB) expense.Repository {
	return &ExpenseRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so expense and participant
// writes commit atomically with debt generation
func (r *ExpenseRepository) WithTx(tx pgx.Tx) expense.Repository {
	return &ExpenseRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new expense together with its participant rows
func (r *ExpenseRepository) Create(ctx context.Context, exp *expense.Expense) error {
	query := `
		INSERT INTO expenses (id, nex_id, payer_id, amount, currency, split_policy, payer_participates, status, failure_reason, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		exp.ID,
		exp.NexID,
		exp.PayerID,
		exp.Amount,
		exp.Currency,
		exp.SplitPolicy,
		exp.PayerParticipates,
		exp.Status,
		exp.FailureReason,
		exp.Revision,
		exp.CreatedAt,
		exp.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", "error", err)
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return r.insertParticipants(ctx, exp.ID, exp.Participants)
}

// GetByID retrieves an expense and its participants by expense ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `
		SELECT id, nex_id, payer_id, amount, currency, split_policy, payer_participates, status, failure_reason, revision, created_at, updated_at
		FROM expenses
		WHERE id = $1
	`

	var exp expense.Expense
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&exp.ID,
		&exp.NexID,
		&exp.PayerID,
		&exp.Amount,
		&exp.Currency,
		&exp.SplitPolicy,
		&exp.PayerParticipates,
		&exp.Status,
		&exp.FailureReason,
		&exp.Revision,
		&exp.CreatedAt,
		&exp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, expense.ErrExpenseNotFound{ExpenseID: id}
		}
		r.logger.Error("Failed to get expense", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	participants, err := r.getParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	exp.Participants = participants

	return &exp, nil
}

// Update persists an edited expense with optimistic locking on revision and
// replaces its participant rows
func (r *ExpenseRepository) Update(ctx context.Context, exp *expense.Expense) error {
	query := `
		UPDATE expenses
		SET payer_id = $1, amount = $2, currency = $3, split_policy = $4, payer_participates = $5,
		    status = $6, failure_reason = $7, revision = $8, updated_at = $9
		WHERE id = $10 AND revision = $11
	`

	tag, err := r.querier.Exec(ctx, query,
		exp.PayerID,
		exp.Amount,
		exp.Currency,
		exp.SplitPolicy,
		exp.PayerParticipates,
		exp.Status,
		exp.FailureReason,
		exp.Revision,
		exp.UpdatedAt,
		exp.ID,
		exp.Revision-1,
	)
	if err != nil {
		r.logger.Error("Failed to update expense", "id", exp.ID.String(), "error", err)
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrConcurrentRevision{ExpenseID: exp.ID}
	}

	deleteQuery := `DELETE FROM expense_participants WHERE expense_id = $1`
	if _, err := r.querier.Exec(ctx, deleteQuery, exp.ID); err != nil {
		r.logger.Error("Failed to delete expense participants", "expense_id", exp.ID.String(), "error", err)
		return fmt.Errorf("failed to delete expense participants: %w", err)
	}

	return r.insertParticipants(ctx, exp.ID, exp.Participants)
}

// SetStatus records the processing outcome for an expense
func (r *ExpenseRepository) SetStatus(ctx context.Context, id uuid.UUID, status shared.ExpenseStatus, failureReason string) error {
	query := `
		UPDATE expenses
		SET status = $1, failure_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	tag, err := r.querier.Exec(ctx, query, status, failureReason, id)
	if err != nil {
		r.logger.Error("Failed to set expense status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set expense status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrExpenseNotFound{ExpenseID: id}
	}

	return nil
}

// SaveShares persists the computed split shares for an expense's participants
func (r *ExpenseRepository) SaveShares(ctx context.Context, expenseID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error {
	query := `
		UPDATE expense_participants
		SET share = $1
		WHERE expense_id = $2 AND user_id = $3
	`

	for userID, share := range shares {
		if _, err := r.querier.Exec(ctx, query, share, expenseID, userID); err != nil {
			r.logger.Error("Failed to save share", "expense_id", expenseID.String(), "user_id", userID.String(), "error", err)
			return fmt.Errorf("failed to save share: %w", err)
		}
	}

	return nil
}

func (r *ExpenseRepository) insertParticipants(ctx context.Context, expenseID uuid.UUID, participants []expense.Participant) error {
	query := `
		INSERT INTO expense_participants (expense_id, user_id, percentage, amount, share)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, p := range participants {
		if _, err := r.querier.Exec(ctx, query, expenseID, p.UserID, p.Percentage, p.Amount, p.Share); err != nil {
			r.logger.Error("Failed to insert expense participant", "expense_id", expenseID.String(), "error", err)
			return fmt.Errorf("failed to insert expense participant: %w", err)
		}
	}

	return nil
}

func (r *ExpenseRepository) getParticipants(ctx context.Context, expenseID uuid.UUID) ([]expense.Participant, error) {
	// Insertion order is preserved so split remainders land on the same
	// participants across recalculations.
	query := `
		SELECT user_id, percentage, amount, share
		FROM expense_participants
		WHERE expense_id = $1
		ORDER BY position
	`

	rows, err := r.querier.Query(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to get expense participants", "expense_id", expenseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get expense participants: %w", err)
	}
	defer rows.Close()

	var participants []expense.Participant
	for rows.Next() {
		var p expense.Participant
		if err := rows.Scan(&p.UserID, &p.Percentage, &p.Amount, &p.Share); err != nil {
			return nil, fmt.Errorf("failed to scan expense participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense participants: %w", err)
	}

	return participants, nil
}
