package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/processor/service"
)

type DebtWriterImpl struct {
	expenseRepo expense.Repository
	debtRepo    debt.Repository
	logger      *slog.Logger
}

func NewDebtWriter(expenseRepo expense.Repository, debtRepo debt.Repository, logger *slog.Logger) service.DebtWriter {
	return &DebtWriterImpl{
		expenseRepo: expenseRepo,
		debtRepo:    debtRepo,
		logger:      logger,
	}
}

// WriteDebts persists one generation run on the supplied transaction:
// previous debts for the expense are superseded (a no-op on first
// generation), shares are saved, the new debts inserted, and the expense
// flipped to PROCESSED. Settled debts from earlier revisions are left
// untouched; only outstanding rows are superseded.
func (w *DebtWriterImpl) WriteDebts(ctx context.Context, tx pgx.Tx, exp *expense.Expense, shares map[uuid.UUID]decimal.Decimal, debts []*debt.Debt) error {
	expenseTx := w.expenseRepo.WithTx(tx)
	debtTx := w.debtRepo.WithTx(tx)

	if err := debtTx.SupersedeByExpense(ctx, exp.ID, time.Now()); err != nil {
		return fmt.Errorf("failed to supersede previous debts for expense %s: %w", exp.ID.String(), err)
	}

	if err := expenseTx.SaveShares(ctx, exp.ID, shares); err != nil {
		return fmt.Errorf("failed to save shares for expense %s: %w", exp.ID.String(), err)
	}

	if len(debts) > 0 {
		if err := debtTx.CreateBatch(ctx, debts); err != nil {
			return fmt.Errorf("failed to create debts for expense %s: %w", exp.ID.String(), err)
		}
	}

	if err := expenseTx.SetStatus(ctx, exp.ID, shared.ExpenseStatusProcessed, ""); err != nil {
		return fmt.Errorf("failed to mark expense %s processed: %w", exp.ID.String(), err)
	}

	w.logger.Debug("Wrote debt generation",
		"expense_id", exp.ID.String(),
		"nex_id", exp.NexID.String(),
		"debts", len(debts),
	)
	return nil
}
