package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/notification"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
	"github.com/bhanuka-viraj/nexsplit/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *notification.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*notification.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) notification.Repository {
	return m
}

// MockMessagePublisher for testing
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func pendingMessage(t *testing.T, nexID uuid.UUID) *notification.Message {
	t.Helper()

	txn := &settlement.Transaction{
		ID:         uuid.New(),
		NexID:      nexID,
		FromUserID: uuid.New(),
		ToUserID:   uuid.New(),
		Amount:     decimal.RequireFromString("45.00"),
		Currency:   "USD",
		Mode:       shared.SettlementModeSimplified,
	}

	message, err := notification.NewMessage(txn, []uuid.UUID{uuid.New()}, time.Now())
	assert.NoError(t, err)
	message.ID = 1
	return message
}

func TestEventPublisher_PublishEvent(t *testing.T) {
	logger := slog.Default()
	nexID := uuid.New()

	t.Run("publishes event keyed by nex and marks processed", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockOutboxRepo, mockProducer, logger)

		message := pendingMessage(t, nexID)

		mockProducer.On("Publish", mock.Anything, nexID.String(), mock.MatchedBy(func(v interface{}) bool {
			event, ok := v.(*notification.SettlementExecutedEvent)
			return ok && event.NexID == nexID && event.TransactionID == message.TransactionID
		})).Return(nil).Once()
		mockOutboxRepo.On("UpdateStatus", mock.Anything, message.ID, shared.OutboxStatusProcessed).Return(nil).Once()

		err := publisher.PublishEvent(context.Background(), message)

		assert.NoError(t, err)
		mockProducer.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("corrupt payload is marked failed without publishing", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockOutboxRepo, mockProducer, logger)

		message := pendingMessage(t, nexID)
		message.Payload = []byte("not json")

		mockOutboxRepo.On("UpdateStatus", mock.Anything, message.ID, shared.OutboxStatusFailedToPublish).Return(nil).Once()

		err := publisher.PublishEvent(context.Background(), message)

		assert.Error(t, err)
		mockProducer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("publish failure leaves the row pending for retry", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockOutboxRepo, mockProducer, logger)

		message := pendingMessage(t, nexID)

		mockProducer.On("Publish", mock.Anything, nexID.String(), mock.Anything).Return(errors.New("kafka down")).Once()

		err := publisher.PublishEvent(context.Background(), message)

		assert.Error(t, err)
		mockOutboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		mockProducer.AssertExpectations(t)
	})

	t.Run("status update failure after publish propagates", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockProducer := &MockMessagePublisher{}
		publisher := NewEventPublisher(mockOutboxRepo, mockProducer, logger)

		message := pendingMessage(t, nexID)

		mockProducer.On("Publish", mock.Anything, nexID.String(), mock.Anything).Return(nil).Once()
		mockOutboxRepo.On("UpdateStatus", mock.Anything, message.ID, shared.OutboxStatusProcessed).Return(errors.New("db error")).Once()

		err := publisher.PublishEvent(context.Background(), message)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "PROCESSED")
		mockProducer.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})
}
