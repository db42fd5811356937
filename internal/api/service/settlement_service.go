package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
	"github.com/bhanuka-viraj/nexsplit/internal/engine"
	"github.com/bhanuka-viraj/nexsplit/internal/metrics"
)

// SettlementServiceImpl implements the SettlementService interface
type SettlementServiceImpl struct {
	debtRepo    debt.Repository
	historyRepo settlement.HistoryRepository
	executor    *SettlementExecutor
	logger      *slog.Logger
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	logger *slog.Logger,
	debtRepo debt.Repository,
	historyRepo settlement.HistoryRepository,
	executor *SettlementExecutor,
) SettlementService {
	return &SettlementServiceImpl{
		debtRepo:    debtRepo,
		historyRepo: historyRepo,
		executor:    executor,
		logger:      logger,
	}
}

// GetNexBalances computes net positions from the outstanding debts of a nex.
// Conservation is checked on every read so drift surfaces immediately rather
// than at the next settlement attempt.
func (s *SettlementServiceImpl) GetNexBalances(ctx context.Context, nexID uuid.UUID) ([]engine.Balance, error) {
	debts, err := s.debtRepo.ListOutstandingByNex(ctx, nexID)
	if err != nil {
		s.logger.Error("Failed to list outstanding debts", "nex_id", nexID.String(), "error", err)
		return nil, err
	}

	net := engine.NetBalances(debts)
	if err := engine.CheckConservation(nexID, net); err != nil {
		s.logger.Error("Balance conservation violated", "nex_id", nexID.String(), "error", err)
		return nil, err
	}

	balances := make([]engine.Balance, 0, len(net))
	for userID, amount := range net {
		balances = append(balances, engine.Balance{UserID: userID, Net: amount})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].UserID.String() < balances[j].UserID.String()
	})
	return balances, nil
}

// GetUserBalances folds a user's outstanding debts across all nexes into one
// net position per nex
func (s *SettlementServiceImpl) GetUserBalances(ctx context.Context, userID uuid.UUID) ([]NexPosition, error) {
	debts, err := s.debtRepo.ListOutstandingByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list outstanding debts for user", "user_id", userID.String(), "error", err)
		return nil, err
	}

	net := make(map[uuid.UUID]decimal.Decimal)
	currencies := make(map[uuid.UUID]string)
	for _, d := range debts {
		currencies[d.NexID] = d.Currency
		if d.CreditorID == userID {
			net[d.NexID] = net[d.NexID].Add(d.Amount)
		}
		if d.DebtorID == userID {
			net[d.NexID] = net[d.NexID].Sub(d.Amount)
		}
	}

	positions := make([]NexPosition, 0, len(net))
	for nexID, amount := range net {
		if amount.IsZero() {
			continue
		}
		positions = append(positions, NexPosition{
			NexID:    nexID,
			Net:      amount,
			Currency: currencies[nexID],
		})
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].NexID.String() < positions[j].NexID.String()
	})
	return positions, nil
}

// PlanSettlements projects outstanding debts into proposed transactions
func (s *SettlementServiceImpl) PlanSettlements(ctx context.Context, nexID uuid.UUID, mode shared.SettlementMode) ([]*settlement.Transaction, error) {
	debts, err := s.debtRepo.ListOutstandingByNex(ctx, nexID)
	if err != nil {
		s.logger.Error("Failed to list outstanding debts", "nex_id", nexID.String(), "error", err)
		return nil, err
	}

	planStart := time.Now()
	txns, err := engine.Plan(nexID, mode, debts)
	metrics.PlanDuration.Observe(time.Since(planStart).Seconds())
	if err != nil {
		s.logger.Error("Failed to plan settlements", "nex_id", nexID.String(), "mode", string(mode), "error", err)
		return nil, err
	}
	return txns, nil
}

// ExecuteSettlements settles the selected planned transactions
func (s *SettlementServiceImpl) ExecuteSettlements(ctx context.Context, nexID uuid.UUID, mode shared.SettlementMode, selection settlement.Selection, paymentMethod, notes, correlationID string) (*settlement.ExecutionReport, error) {
	return s.executor.Execute(ctx, nexID, mode, selection, paymentMethod, notes, correlationID)
}

// GetHistory retrieves paginated settlement history for a nex
func (s *SettlementServiceImpl) GetHistory(ctx context.Context, nexID uuid.UUID, page, perPage int) ([]*settlement.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.historyRepo.GetByNexID(ctx, nexID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.historyRepo.CountByNexID(ctx, nexID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
