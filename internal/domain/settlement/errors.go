package settlement

import (
	"github.com/google/uuid"
)

// ErrStaleSettlement indicates a selected transaction no longer matches the
// current outstanding debts, typically because a concurrent execution already
// covered them. Retryable: callers should re-fetch a fresh plan.
type ErrStaleSettlement struct {
	TransactionID uuid.UUID
	Reason        string
}

func (e ErrStaleSettlement) Error() string {
	msg := "stale settlement transaction: " + e.TransactionID.String()
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Is implements the errors.Is interface for ErrStaleSettlement
func (e ErrStaleSettlement) Is(target error) bool {
	t, ok := target.(ErrStaleSettlement)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrTransactionNotFound indicates a selected transaction ID is absent from
// the freshly computed plan
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "settlement transaction not found in current plan: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
