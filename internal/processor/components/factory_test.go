package components

import (
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"

	"github.com/bhanuka-viraj/nexsplit/internal/config"
	"github.com/bhanuka-viraj/nexsplit/internal/platform/persistence"
	"github.com/bhanuka-viraj/nexsplit/internal/processor/service"
)

// Reusing mocks from the other test files:
// MockExpenseRepo from expense_validator_test.go
// MockDebtRepoForWriter from debt_writer_test.go

func TestCreateProcessingService(t *testing.T) {
	mockPgDB := &persistence.PostgresDB{}
	mockExpenseRepo := &MockExpenseRepo{}
	mockDebtRepo := &MockDebtRepoForWriter{}
	logger := slog.Default()

	t.Run("creates worker pool service with valid config", func(t *testing.T) {
		cfg := &config.Config{
			WorkerPool: config.WorkerPoolConfig{Size: 5},
			Engine:     config.EngineConfig{DefaultCurrency: "USD"},
		}

		processingService := CreateProcessingService(
			mockPgDB,
			mockExpenseRepo,
			mockDebtRepo,
			logger,
			cfg,
		)

		assert.NotNil(t, processingService)
		_, ok := processingService.(*service.WorkerPoolProcessingService)
		assert.True(t, ok)
	})

	t.Run("non-positive pool size still yields a usable service", func(t *testing.T) {
		// ants treats a non-positive size as an unbounded pool
		cfg := &config.Config{
			WorkerPool: config.WorkerPoolConfig{Size: 0},
			Engine:     config.EngineConfig{DefaultCurrency: "USD"},
		}

		processingService := CreateProcessingService(
			mockPgDB,
			mockExpenseRepo,
			mockDebtRepo,
			logger,
			cfg,
		)

		assert.NotNil(t, processingService)
		_, ok := processingService.(service.ProcessingService)
		assert.True(t, ok)
	})
}
