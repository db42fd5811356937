package components

import (
	"log/slog"

	"github.com/bhanuka-viraj/nexsplit/internal/config"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/debt"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/expense"
	"github.com/bhanuka-viraj/nexsplit/internal/engine"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/persistence"
	"github.com/bhanuka-viraj/nexsplit/internal/processor/service"
)

// CreateProcessingService wires the processing service with all its
// collaborators, wrapped in the worker pool when one can be created
func CreateProcessingService(
	pgDB *persistence.PostgresDB,
	expenseRepo expense.Repository,
	debtRepo debt.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewExpenseValidator(expenseRepo, logger)
	calculator := engine.NewCalculator(cfg.Engine.DefaultCurrency)
	debtWriter := NewDebtWriter(expenseRepo, debtRepo, logger)
	failureRecorder := NewFailureRecorder(expenseRepo, logger)

	baseService := service.NewProcessingService(
		pgDB,
		validator,
		calculator,
		debtWriter,
		failureRecorder,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
