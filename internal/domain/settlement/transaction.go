package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// transactionNamespace seeds deterministic transaction IDs. Plans are pure
// read-time projections recomputed on every call; deterministic IDs are what
// lets a client select transactions from one plan and execute them against a
// re-planned view of the same state.
var transactionNamespace = uuid.MustParse("7b1c9a52-3e84-4f6d-9a0e-5c2d8f1b6e43")

// Transaction is a proposed payment that clears one or more debts. It owns no
// persistent identity; RelatedDebtIDs is the only bridge back to durable
// state for execution.
type Transaction struct {
	ID             uuid.UUID             `json:"id"`
	NexID          uuid.UUID             `json:"nex_id"`
	FromUserID     uuid.UUID             `json:"from_user_id"`
	ToUserID       uuid.UUID             `json:"to_user_id"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency"`
	Mode           shared.SettlementMode `json:"mode"`
	Status         shared.TransactionStatus `json:"status"`
	RelatedDebtIDs []uuid.UUID           `json:"related_debt_ids"`
	CreatedAt      time.Time             `json:"created_at"`
	ExecutedAt     *time.Time            `json:"executed_at,omitempty"`
}

// DetailedTransactionID derives the deterministic ID for a DETAILED
// transaction, which maps 1:1 to a single debt.
func DetailedTransactionID(nexID, debtID uuid.UUID) uuid.UUID {
	data := make([]byte, 0, 64)
	data = append(data, nexID[:]...)
	data = append(data, []byte(shared.SettlementModeDetailed)...)
	data = append(data, debtID[:]...)
	return uuid.NewSHA1(transactionNamespace, data)
}

// SimplifiedTransactionID derives the deterministic ID for a SIMPLIFIED
// transaction between a debtor/creditor pair. Re-planning an unchanged group
// yields the same pairs and therefore the same IDs.
func SimplifiedTransactionID(nexID, fromUserID, toUserID uuid.UUID) uuid.UUID {
	data := make([]byte, 0, 64)
	data = append(data, nexID[:]...)
	data = append(data, []byte(shared.SettlementModeSimplified)...)
	data = append(data, fromUserID[:]...)
	data = append(data, toUserID[:]...)
	return uuid.NewSHA1(transactionNamespace, data)
}

// Selection identifies which planned transactions to execute: everything, or
// an explicit set by deterministic transaction ID, each optionally carrying a
// partial amount lower than the planned one.
type Selection struct {
	All          bool
	Transactions []SelectedTransaction
}

// SelectedTransaction references one planned transaction. A nil Amount
// executes the full planned amount; a lower amount settles partially and
// splits the boundary debt.
type SelectedTransaction struct {
	ID     uuid.UUID
	Amount *decimal.Decimal
}

// SelectAll is the selection covering every planned transaction
func SelectAll() Selection {
	return Selection{All: true}
}
