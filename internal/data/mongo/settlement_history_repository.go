// Package mongo provides the MongoDB implementation of the settlement
// history read model. History entries are immutable once written; writes
// come only from the settlement execution path.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bhanuka-viraj/nexsplit/internal/domain/settlement"
)

const (
	// HistoryCollectionName is the name of the settlement history collection
	HistoryCollectionName = "settlement_history"
)

// SettlementHistoryRepository implements settlement.HistoryRepository for MongoDB
type SettlementHistoryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewSettlementHistoryRepository creates a new MongoDB settlement history repository
func NewSettlementHistoryRepository(logger *slog.Logger, db *mongo.Database) settlement.HistoryRepository {
	return &SettlementHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a settlement history entry. An entry already existing for
// the transaction ID is left untouched; executions retried after a publish
// failure must not duplicate history.
func (r *SettlementHistoryRepository) Create(ctx context.Context, entry *settlement.Entry) error {
	collection := r.db.Collection(HistoryCollectionName)

	existing, err := r.GetByTransactionID(ctx, entry.TransactionID)
	if err != nil && !errors.Is(err, settlement.ErrEntryNotFound{}) {
		r.logger.Error("Failed to check for existing history entry",
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing history entry: %w", err)
	}
	if existing != nil {
		return nil
	}

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		r.logger.Error("Failed to create history entry",
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a history entry by its transaction ID
func (r *SettlementHistoryRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*settlement.Entry, error) {
	collection := r.db.Collection(HistoryCollectionName)

	var entry settlement.Entry
	err := collection.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, settlement.ErrEntryNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get history entry",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}

	return &entry, nil
}

// GetByNexID retrieves paginated history entries for a nex, newest first
func (r *SettlementHistoryRepository) GetByNexID(ctx context.Context, nexID uuid.UUID, limit, offset int) ([]*settlement.Entry, error) {
	collection := r.db.Collection(HistoryCollectionName)

	opts := options.Find().
		SetSort(bson.M{"executed_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"nex_id": nexID}, opts)
	if err != nil {
		r.logger.Error("Failed to get history entries", "nex_id", nexID.String(), "error", err)
		return nil, fmt.Errorf("failed to get history entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*settlement.Entry
	for cursor.Next(ctx) {
		var entry settlement.Entry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history entries: %w", err)
	}

	return entries, nil
}

// CountByNexID returns the total number of history entries for a nex
func (r *SettlementHistoryRepository) CountByNexID(ctx context.Context, nexID uuid.UUID) (int64, error) {
	collection := r.db.Collection(HistoryCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"nex_id": nexID})
	if err != nil {
		r.logger.Error("Failed to count history entries", "nex_id", nexID.String(), "error", err)
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}

	return count, nil
}
