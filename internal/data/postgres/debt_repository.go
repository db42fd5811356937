package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/persistence"
)

// DebtRepository implements the debt.Repository interface for PostgreSQL
type DebtRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDebtRepository creates a new PostgreSQL debt repository
func NewDebtRepository(logger *slog.Logger, db *persistence.PostgresDB) debt.Repository {
	return &DebtRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic settlement writes
func (r *DebtRepository) WithTx(tx pgx.Tx) debt.Repository {
	return &DebtRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const debtColumns = `id, nex_id, expense_id, debtor_id, creditor_id, amount, currency, payment_method, notes, settled_at, superseded_at, created_at`

// CreateBatch inserts generated debts. Called from the processing transaction
// after superseding any previous generation for the same expense.
func (r *DebtRepository) CreateBatch(ctx context.Context, debts []*debt.Debt) error {
	query := `
		INSERT INTO debts (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, d := range debts {
		_, err := r.querier.Exec(ctx, query,
			d.ID,
			d.NexID,
			d.ExpenseID,
			d.DebtorID,
			d.CreditorID,
			d.Amount,
			d.Currency,
			d.PaymentMethod,
			d.Notes,
			d.SettledAt,
			d.SupersededAt,
			d.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create debt", "id", d.ID.String(), "error", err)
			return fmt.Errorf("failed to create debt: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a debt by its ID
func (r *DebtRepository) GetByID(ctx context.Context, id uuid.UUID) (*debt.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1`

	d, err := r.scanRow(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, debt.ErrDebtNotFound{DebtID: id}
		}
		r.logger.Error("Failed to get debt", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}

	return d, nil
}

// ListOutstandingByNex retrieves all outstanding debts for a nex, oldest first
func (r *DebtRepository) ListOutstandingByNex(ctx context.Context, nexID uuid.UUID) ([]*debt.Debt, error) {
	query := `
		SELECT ` + debtColumns + `
		FROM debts
		WHERE nex_id = $1 AND settled_at IS NULL AND superseded_at IS NULL
		ORDER BY created_at, id
	`

	return r.list(ctx, query, nexID)
}

// ListOutstandingByUser retrieves all outstanding debts involving a user as
// debtor or creditor, across all nexes, oldest first
func (r *DebtRepository) ListOutstandingByUser(ctx context.Context, userID uuid.UUID) ([]*debt.Debt, error) {
	query := `
		SELECT ` + debtColumns + `
		FROM debts
		WHERE (debtor_id = $1 OR creditor_id = $1) AND settled_at IS NULL AND superseded_at IS NULL
		ORDER BY created_at, id
	`

	return r.list(ctx, query, userID)
}

// SupersedeByExpense soft-voids all outstanding debts generated for an
// expense. Matching zero rows is not an error: a failed first generation or
// a fully settled expense leaves nothing to supersede.
func (r *DebtRepository) SupersedeByExpense(ctx context.Context, expenseID uuid.UUID, at time.Time) error {
	query := `
		UPDATE debts
		SET superseded_at = $1
		WHERE expense_id = $2 AND settled_at IS NULL AND superseded_at IS NULL
	`

	if _, err := r.querier.Exec(ctx, query, at, expenseID); err != nil {
		r.logger.Error("Failed to supersede debts", "expense_id", expenseID.String(), "error", err)
		return fmt.Errorf("failed to supersede debts: %w", err)
	}

	return nil
}

// MarkSettled settles a debt in full, conditional on it still being
// outstanding. Distinguishes a missing debt from one lost to a concurrent
// settlement so callers can report the right failure.
func (r *DebtRepository) MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time, paymentMethod, notes string) error {
	query := `
		UPDATE debts
		SET settled_at = $1, payment_method = $2, notes = $3
		WHERE id = $4 AND settled_at IS NULL AND superseded_at IS NULL
	`

	tag, err := r.querier.Exec(ctx, query, settledAt, paymentMethod, notes, id)
	if err != nil {
		r.logger.Error("Failed to mark debt settled", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark debt settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.querier.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM debts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check debt existence: %w", err)
		}
		if !exists {
			return debt.ErrDebtNotFound{DebtID: id}
		}
		return debt.ErrDebtAlreadySettled{DebtID: id}
	}

	return nil
}

// SplitSettled settles a portion of a debt. The live row keeps the remainder
// and a new settled row records the covered portion, so partial settlements
// leave a complete audit trail. Returns the settled record's ID.
func (r *DebtRepository) SplitSettled(ctx context.Context, id uuid.UUID, portion decimal.Decimal, settledAt time.Time, paymentMethod, notes string) (uuid.UUID, error) {
	reduceQuery := `
		UPDATE debts
		SET amount = amount - $1
		WHERE id = $2 AND settled_at IS NULL AND superseded_at IS NULL AND amount > $1
	`

	tag, err := r.querier.Exec(ctx, reduceQuery, portion, id)
	if err != nil {
		r.logger.Error("Failed to reduce debt for split settlement", "id", id.String(), "error", err)
		return uuid.Nil, fmt.Errorf("failed to reduce debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.querier.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM debts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return uuid.Nil, fmt.Errorf("failed to check debt existence: %w", err)
		}
		if !exists {
			return uuid.Nil, debt.ErrDebtNotFound{DebtID: id}
		}
		return uuid.Nil, debt.ErrDebtAlreadySettled{DebtID: id}
	}

	settledID := uuid.New()
	insertQuery := `
		INSERT INTO debts (id, nex_id, expense_id, debtor_id, creditor_id, amount, currency, payment_method, notes, settled_at, created_at)
		SELECT $1, nex_id, expense_id, debtor_id, creditor_id, $2, currency, $3, $4, $5, created_at
		FROM debts
		WHERE id = $6
	`

	if _, err := r.querier.Exec(ctx, insertQuery, settledID, portion, paymentMethod, notes, settledAt, id); err != nil {
		r.logger.Error("Failed to insert settled debt portion", "id", id.String(), "error", err)
		return uuid.Nil, fmt.Errorf("failed to insert settled debt portion: %w", err)
	}

	return settledID, nil
}

// LockNex serializes settlement execution per nex with a transaction-scoped
// advisory lock. Released automatically on commit or rollback.
func (r *DebtRepository) LockNex(ctx context.Context, nexID uuid.UUID) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	if _, err := r.querier.Exec(ctx, query, nexID.String()); err != nil {
		r.logger.Error("Failed to acquire nex lock", "nex_id", nexID.String(), "error", err)
		return fmt.Errorf("failed to acquire nex lock: %w", err)
	}

	return nil
}

func (r *DebtRepository) list(ctx context.Context, query string, arg interface{}) ([]*debt.Debt, error) {
	rows, err := r.querier.Query(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list debts", "error", err)
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*debt.Debt
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	return debts, nil
}

func (r *DebtRepository) scanRow(row pgx.Row) (*debt.Debt, error) {
	var d debt.Debt
	err := row.Scan(
		&d.ID,
		&d.NexID,
		&d.ExpenseID,
		&d.DebtorID,
		&d.CreditorID,
		&d.Amount,
		&d.Currency,
		&d.PaymentMethod,
		&d.Notes,
		&d.SettledAt,
		&d.SupersededAt,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
