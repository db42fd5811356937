package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bhanuka-viraj/nexsplit/internal/api/handler"
	"github.com/bhanuka-viraj/nexsplit/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	expenseHandler *handler.ExpenseHandler,
	settlementHandler *handler.SettlementHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Nex-scoped operations
		nexes := v1.Group("/nexes")
		{
			nexes.POST("/:id/expenses", expenseHandler.Create)
			nexes.GET("/:id/balances", settlementHandler.GetNexBalances)
			nexes.GET("/:id/settlements/plan", settlementHandler.Plan)
			nexes.POST("/:id/settlements/execute", settlementHandler.Execute)
			nexes.GET("/:id/settlements/history", settlementHandler.History)
		}

		// Expense operations
		expenses := v1.Group("/expenses")
		{
			expenses.PUT("/:id", expenseHandler.Update)
			expenses.GET("/:id", expenseHandler.GetByID)
		}

		// Cross-nex user balances
		v1.GET("/users/:id/balances", settlementHandler.GetUserBalances)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
