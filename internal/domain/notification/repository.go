package notification

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// Repository manages notification outbox message persistence
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "notification outbox message not found: " + strconv.FormatInt(e.ID, 10)
}
