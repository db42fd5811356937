package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/notification"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/engine"
	"github.com/bhanuka-viraj/nexsplit/internal/metrics"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/persistence"
)

// ErrEmptySelection indicates an execute request that selects no transactions
var ErrEmptySelection = errors.New("settlement selection is empty")

// Failure reason labels for settlement metrics
const (
	failureReasonNotFound      = "not_found"
	failureReasonStale         = "stale"
	failureReasonInvalidAmount = "invalid_amount"
)

// SettlementExecutor settles planned transactions against live debt state.
// Execution re-plans inside a transaction that holds the per-nex advisory
// lock, so the selected transaction IDs are validated against exactly the
// debt rows being settled. Transactions within one run share a view of debt
// consumption: a debt partially covered by an earlier selected transaction
// only offers its remainder to later ones.
type SettlementExecutor struct {
	runTx       func(ctx context.Context, fn func(tx pgx.Tx) error) error
	debtRepo    debt.Repository
	outboxRepo  notification.Repository
	historyRepo settlement.HistoryRepository
	logger      *slog.Logger
}

// NewSettlementExecutor creates a new settlement executor
func NewSettlementExecutor(
	logger *slog.Logger,
	pgDB *persistence.PostgresDB,
	debtRepo debt.Repository,
	outboxRepo notification.Repository,
	historyRepo settlement.HistoryRepository,
) *SettlementExecutor {
	return &SettlementExecutor{
		runTx:       pgDB.ExecuteTx,
		debtRepo:    debtRepo,
		outboxRepo:  outboxRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// allocation assigns a portion of one outstanding debt to a transaction
type allocation struct {
	debt    *debt.Debt
	portion decimal.Decimal
}

// Execute settles the selected transactions atomically. Per-transaction
// failures (stale selection, unknown ID) are reported in the result rather
// than aborting the run; only infrastructure errors roll everything back.
func (e *SettlementExecutor) Execute(ctx context.Context, nexID uuid.UUID, mode shared.SettlementMode, selection settlement.Selection, paymentMethod, notes, correlationID string) (*settlement.ExecutionReport, error) {
	if !selection.All && len(selection.Transactions) == 0 {
		return nil, ErrEmptySelection
	}

	executedAt := time.Now()
	var report *settlement.ExecutionReport
	var entries []*settlement.Entry

	err := e.runTx(ctx, func(tx pgx.Tx) error {
		debts := e.debtRepo.WithTx(tx)
		outbox := e.outboxRepo.WithTx(tx)

		if err := debts.LockNex(ctx, nexID); err != nil {
			return err
		}
		outstanding, err := debts.ListOutstandingByNex(ctx, nexID)
		if err != nil {
			return err
		}

		planStart := time.Now()
		planned, err := engine.Plan(nexID, mode, outstanding)
		metrics.PlanDuration.Observe(time.Since(planStart).Seconds())
		if err != nil {
			return err
		}

		report, entries, err = e.settle(ctx, debts, outbox, nexID, mode, selection, planned, outstanding, paymentMethod, notes, correlationID, executedAt)
		return err
	})
	if err != nil {
		e.logger.Error("Settlement execution failed", "nex_id", nexID.String(), "mode", string(mode), "error", err)
		return nil, err
	}

	// History is a read model; recording failures are logged, not surfaced,
	// and Create is idempotent so a retry cannot duplicate entries.
	for _, entry := range entries {
		if err := e.historyRepo.Create(ctx, entry); err != nil {
			e.logger.Error("Failed to record settlement history",
				"transaction_id", entry.TransactionID.String(),
				"error", err,
			)
		}
	}

	return report, nil
}

func (e *SettlementExecutor) settle(
	ctx context.Context,
	debts debt.Repository,
	outbox notification.Repository,
	nexID uuid.UUID,
	mode shared.SettlementMode,
	selection settlement.Selection,
	planned []*settlement.Transaction,
	outstanding []*debt.Debt,
	paymentMethod, notes, correlationID string,
	executedAt time.Time,
) (*settlement.ExecutionReport, []*settlement.Entry, error) {
	planByID := make(map[uuid.UUID]*settlement.Transaction, len(planned))
	for _, txn := range planned {
		planByID[txn.ID] = txn
	}
	debtByID := make(map[uuid.UUID]*debt.Debt, len(outstanding))
	for _, d := range outstanding {
		debtByID[d.ID] = d
	}

	selected := make([]settlement.SelectedTransaction, 0, len(planned))
	if selection.All {
		for _, txn := range planned {
			selected = append(selected, settlement.SelectedTransaction{ID: txn.ID})
		}
	} else {
		selected = selection.Transactions
	}

	report := &settlement.ExecutionReport{
		NexID:        nexID,
		Mode:         mode,
		TotalSettled: decimal.Zero,
		ExecutedAt:   executedAt,
	}
	var entries []*settlement.Entry

	// consumed tracks how much of each debt earlier transactions in this run
	// already settled
	consumed := make(map[uuid.UUID]decimal.Decimal)

	fail := func(txn *settlement.Transaction, txnID uuid.UUID, failure error, metricReason string) {
		result := settlement.TransactionResult{
			TransactionID: txnID,
			Status:        shared.TransactionStatusFailed,
			FailureReason: failure.Error(),
		}
		entry := &settlement.Entry{
			TransactionID: txnID,
			NexID:         nexID,
			Mode:          mode,
			Status:        shared.TransactionStatusFailed,
			FailureReason: failure.Error(),
			CorrelationID: correlationID,
			ExecutedAt:    executedAt,
		}
		if txn != nil {
			result.FromUserID = txn.FromUserID
			result.ToUserID = txn.ToUserID
			result.Amount = txn.Amount
			entry.FromUserID = txn.FromUserID
			entry.ToUserID = txn.ToUserID
			entry.Amount = txn.Amount.StringFixed(2)
			entry.Currency = txn.Currency
		}
		report.Results = append(report.Results, result)
		report.FailedCount++
		entries = append(entries, entry)
		metrics.SettlementFailures.WithLabelValues(metricReason).Inc()
	}

	for _, sel := range selected {
		txn, ok := planByID[sel.ID]
		if !ok {
			fail(nil, sel.ID, settlement.ErrTransactionNotFound{TransactionID: sel.ID}, failureReasonNotFound)
			continue
		}

		amount := txn.Amount
		if sel.Amount != nil {
			amount = *sel.Amount
			if !amount.IsPositive() || !shared.ValidMoney(amount) {
				fail(txn, txn.ID, settlement.ErrStaleSettlement{
					TransactionID: txn.ID,
					Reason:        "selected amount is not a valid positive money value",
				}, failureReasonInvalidAmount)
				continue
			}
			if amount.GreaterThan(txn.Amount) {
				fail(txn, txn.ID, settlement.ErrStaleSettlement{
					TransactionID: txn.ID,
					Reason:        "selected amount exceeds planned amount",
				}, failureReasonInvalidAmount)
				continue
			}
			// DETAILED transactions map 1:1 to debt rows and settle whole;
			// only SIMPLIFIED transfers may cover part of the planned amount.
			if amount.LessThan(txn.Amount) && mode == shared.SettlementModeDetailed {
				fail(txn, txn.ID, settlement.ErrStaleSettlement{
					TransactionID: txn.ID,
					Reason:        "partial amounts apply only to SIMPLIFIED transactions",
				}, failureReasonInvalidAmount)
				continue
			}
		}

		allocs, covered := allocate(txn, amount, debtByID, consumed)
		if !covered {
			fail(txn, txn.ID, settlement.ErrStaleSettlement{
				TransactionID: txn.ID,
				Reason:        "outstanding debts no longer cover the transfer",
			}, failureReasonStale)
			continue
		}

		settledIDs := make([]uuid.UUID, 0, len(allocs))
		for _, a := range allocs {
			total := consumed[a.debt.ID].Add(a.portion)
			if total.Equal(a.debt.Amount) {
				// Covers everything left of the row, settle it whole.
				if err := debts.MarkSettled(ctx, a.debt.ID, executedAt, paymentMethod, notes); err != nil {
					return nil, nil, err
				}
				consumed[a.debt.ID] = total
				settledIDs = append(settledIDs, a.debt.ID)
				continue
			}
			settledID, err := debts.SplitSettled(ctx, a.debt.ID, a.portion, executedAt, paymentMethod, notes)
			if err != nil {
				return nil, nil, err
			}
			consumed[a.debt.ID] = total
			settledIDs = append(settledIDs, settledID)
		}

		executed := *txn
		executed.Amount = amount
		executed.Status = shared.TransactionStatusSettled
		executed.ExecutedAt = &executedAt

		msg, err := notification.NewMessage(&executed, settledIDs, executedAt)
		if err != nil {
			return nil, nil, err
		}
		if err := outbox.Create(ctx, msg); err != nil {
			return nil, nil, err
		}

		report.Results = append(report.Results, settlement.TransactionResult{
			TransactionID:  txn.ID,
			FromUserID:     txn.FromUserID,
			ToUserID:       txn.ToUserID,
			Amount:         amount,
			Status:         shared.TransactionStatusSettled,
			SettledDebtIDs: settledIDs,
		})
		report.SettledCount++
		report.TotalSettled = report.TotalSettled.Add(amount)
		metrics.SettlementsExecuted.WithLabelValues(string(mode)).Inc()

		entries = append(entries, &settlement.Entry{
			TransactionID:  txn.ID,
			NexID:          nexID,
			FromUserID:     txn.FromUserID,
			ToUserID:       txn.ToUserID,
			Amount:         amount.StringFixed(2),
			Currency:       txn.Currency,
			Mode:           mode,
			Status:         shared.TransactionStatusSettled,
			PaymentMethod:  paymentMethod,
			Notes:          notes,
			SettledDebtIDs: settledIDs,
			CorrelationID:  correlationID,
			ExecutedAt:     executedAt,
		})
	}

	return report, entries, nil
}

// allocate walks a transaction's related debts in plan order, assigning each
// debt's unconsumed remainder until the amount is covered. The boundary debt
// gets a partial portion, which settles via a split rather than in full.
func allocate(txn *settlement.Transaction, amount decimal.Decimal, debtByID map[uuid.UUID]*debt.Debt, consumed map[uuid.UUID]decimal.Decimal) ([]allocation, bool) {
	remaining := amount
	var allocs []allocation
	for _, debtID := range txn.RelatedDebtIDs {
		if !remaining.IsPositive() {
			break
		}
		d, ok := debtByID[debtID]
		if !ok {
			continue
		}
		avail := d.Amount.Sub(consumed[d.ID])
		if !avail.IsPositive() {
			continue
		}
		take := decimal.Min(avail, remaining)
		allocs = append(allocs, allocation{debt: d, portion: take})
		remaining = remaining.Sub(take)
	}
	return allocs, !remaining.IsPositive()
}
