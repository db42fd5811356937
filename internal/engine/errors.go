package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvalidSplitError indicates the split inputs cannot produce a valid share
// set. It is returned before anything is persisted.
type InvalidSplitError struct {
	Reason string
}

func (e InvalidSplitError) Error() string {
	return "invalid split: " + e.Reason
}

// Is implements the errors.Is interface for InvalidSplitError
func (e InvalidSplitError) Is(target error) bool {
	t, ok := target.(InvalidSplitError)
	if !ok {
		return false
	}
	if t.Reason == "" {
		return true
	}
	return e.Reason == t.Reason
}

// InconsistentStateError indicates the conservation law is violated: the net
// balances of a nex do not sum to zero within one cent. This signals a
// data-integrity bug upstream and is never silently patched.
type InconsistentStateError struct {
	NexID uuid.UUID
	Drift decimal.Decimal
}

func (e InconsistentStateError) Error() string {
	return "inconsistent balance state for nex " + e.NexID.String() + ": drift " + e.Drift.String()
}

// Is implements the errors.Is interface for InconsistentStateError
func (e InconsistentStateError) Is(target error) bool {
	t, ok := target.(InconsistentStateError)
	if !ok {
		return false
	}
	if t.NexID == uuid.Nil {
		return true
	}
	return e.NexID == t.NexID
}
