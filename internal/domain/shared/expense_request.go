package shared

import (
	"time"

	"github.com/google/uuid"
)

// RequestKind distinguishes first-time debt generation from recalculation
type RequestKind string

const (
	RequestKindCreate      RequestKind = "CREATE"
	RequestKindRecalculate RequestKind = "RECALCULATE"
)

// ExpenseRequest defines a Kafka message for expense processing.
// The expense row is persisted (status PENDING) by the API before the
// message is published, so the payload carries only identity; the processor
// reads the authoritative expense from the store. Revision guards against
// processing a request that a later edit has already superseded.
type ExpenseRequest struct {
	RequestID     uuid.UUID   `json:"request_id"`
	Kind          RequestKind `json:"kind"`
	ExpenseID     uuid.UUID   `json:"expense_id"`
	NexID         uuid.UUID   `json:"nex_id"`
	Revision      int         `json:"revision"`
	CorrelationID string      `json:"correlation_id"`
	Timestamp     time.Time   `json:"timestamp"`
}
