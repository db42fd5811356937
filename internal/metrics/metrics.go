// Package metrics exposes Prometheus collectors for the settlement pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExpensesProcessed counts expense requests by processing result
	// (processed, failed, skipped).
	ExpensesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexsplit_expenses_processed_total",
		Help: "Number of expense requests handled by the processor, by result.",
	}, []string{"result"})

	// DebtsCreated counts debt records generated from expenses.
	DebtsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nexsplit_debts_created_total",
		Help: "Number of debt records generated from expenses.",
	})

	// SettlementsExecuted counts settlement transactions settled, by mode.
	SettlementsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexsplit_settlements_executed_total",
		Help: "Number of settlement transactions executed, by mode.",
	}, []string{"mode"})

	// SettlementFailures counts per-transaction settlement failures, by reason.
	SettlementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexsplit_settlement_failures_total",
		Help: "Number of settlement transactions that failed, by reason.",
	}, []string{"reason"})

	// PlanDuration observes settlement planning latency.
	PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nexsplit_settlement_plan_duration_seconds",
		Help:    "Time spent computing settlement plans.",
		Buckets: prometheus.DefBuckets,
	})
)
