package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// SettlementExecutedEvent is the payload published to interested consumers
// after a settlement transaction commits. Delivery is fire-and-forget from
// the engine's point of view; the outbox decouples publication from the
// committing transaction.
type SettlementExecutedEvent struct {
	TransactionID  uuid.UUID             `json:"transaction_id"`
	NexID          uuid.UUID             `json:"nex_id"`
	FromUserID     uuid.UUID             `json:"from_user_id"`
	ToUserID       uuid.UUID             `json:"to_user_id"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency"`
	Mode           shared.SettlementMode `json:"mode"`
	SettledDebtIDs []uuid.UUID           `json:"settled_debt_ids,omitempty"`
	ExecutedAt     time.Time             `json:"executed_at"`
}

// Message stores a settlement event for reliable publication. Rows are
// written in the same database transaction that settles the underlying
// debts and drained by the outbox poller.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	NexID         uuid.UUID           `json:"nex_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage builds a pending outbox message from an executed settlement
// transaction
func NewMessage(txn *settlement.Transaction, settledDebtIDs []uuid.UUID, executedAt time.Time) (*Message, error) {
	event := SettlementExecutedEvent{
		TransactionID:  txn.ID,
		NexID:          txn.NexID,
		FromUserID:     txn.FromUserID,
		ToUserID:       txn.ToUserID,
		Amount:         txn.Amount,
		Currency:       txn.Currency,
		Mode:           txn.Mode,
		SettledDebtIDs: settledDebtIDs,
		ExecutedAt:     executedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: txn.ID,
		NexID:         txn.NexID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetEvent extracts the settlement event from the payload
func (m *Message) GetEvent() (*SettlementExecutedEvent, error) {
	var event SettlementExecutedEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
