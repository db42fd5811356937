package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// TransactionResult records the outcome of executing one selected transaction
type TransactionResult struct {
	TransactionID  uuid.UUID                `json:"transaction_id"`
	FromUserID     uuid.UUID                `json:"from_user_id"`
	ToUserID       uuid.UUID                `json:"to_user_id"`
	Amount         decimal.Decimal          `json:"amount"`
	Status         shared.TransactionStatus `json:"status"`
	SettledDebtIDs []uuid.UUID              `json:"settled_debt_ids,omitempty"`
	FailureReason  string                   `json:"failure_reason,omitempty"`
}

// ExecutionReport summarizes a settlement execution run. Execution has
// partial-failure semantics: transactions are independent unless they share a
// debt, so successes and failures are reported side by side rather than
// aborting the run.
type ExecutionReport struct {
	NexID        uuid.UUID             `json:"nex_id"`
	Mode         shared.SettlementMode `json:"mode"`
	SettledCount int                   `json:"settled_count"`
	FailedCount  int                   `json:"failed_count"`
	TotalSettled decimal.Decimal       `json:"total_settled"`
	Results      []TransactionResult   `json:"results"`
	ExecutedAt   time.Time             `json:"executed_at"`
}
