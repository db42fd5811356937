package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// Entry is the durable settlement history record, one per executed (or
// failed) settlement transaction. Amounts are stored as their exact decimal
// string form.
type Entry struct {
	TransactionID  uuid.UUID                `json:"transaction_id" bson:"transaction_id"`
	NexID          uuid.UUID                `json:"nex_id" bson:"nex_id"`
	FromUserID     uuid.UUID                `json:"from_user_id" bson:"from_user_id"`
	ToUserID       uuid.UUID                `json:"to_user_id" bson:"to_user_id"`
	Amount         string                   `json:"amount" bson:"amount"`
	Currency       string                   `json:"currency" bson:"currency"`
	Mode           shared.SettlementMode    `json:"mode" bson:"mode"`
	Status         shared.TransactionStatus `json:"status" bson:"status"`
	PaymentMethod  string                   `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	Notes          string                   `json:"notes,omitempty" bson:"notes,omitempty"`
	SettledDebtIDs []uuid.UUID              `json:"settled_debt_ids,omitempty" bson:"settled_debt_ids,omitempty"`
	FailureReason  string                   `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID  string                   `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	ExecutedAt     time.Time                `json:"executed_at" bson:"executed_at"`
}
