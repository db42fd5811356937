package settlement

import (
	"context"

	"github.com/google/uuid"
)

// HistoryRepository manages settlement history persistence with pagination support
type HistoryRepository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Entry, error)
	GetByNexID(ctx context.Context, nexID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByNexID(ctx context.Context, nexID uuid.UUID) (int64, error)
}

// ErrEntryNotFound indicates missing settlement history entry
type ErrEntryNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "settlement history entry not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
