package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// InvoiceCollectionName is the name of the invoice archive collection in MongoDB
	InvoiceCollectionName = "invoices"
)

// InvoiceRepository implements the invoice.Repository interface for MongoDB
type InvoiceRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewInvoiceRepository creates a new MongoDB invoice repository
func NewInvoiceRepository(logger *slog.Logger, db *mongo.Database) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the lookup indexes used by the query methods
func (r *InvoiceRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(InvoiceCollectionName)

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "archived_at", Value: -1}}},
		{Keys: bson.D{{Key: "run_id", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("Failed to create invoice indexes", "error", err)
		return fmt.Errorf("failed to create invoice indexes: %w", err)
	}

	return nil
}

// Save archives a single invoice
func (r *InvoiceRepository) Save(ctx context.Context, record *invoice.Record) error {
	collection := r.db.Collection(InvoiceCollectionName)

	if _, err := collection.InsertOne(ctx, record); err != nil {
		r.logger.Error("Failed to archive invoice",
			"order_id", record.OrderID,
			"run_id", record.RunID.String(),
			"error", err)
		return fmt.Errorf("failed to archive invoice: %w", err)
	}

	return nil
}

// SaveMany archives every invoice of a run in one round trip
func (r *InvoiceRepository) SaveMany(ctx context.Context, records []*invoice.Record) error {
	if len(records) == 0 {
		return nil
	}

	collection := r.db.Collection(InvoiceCollectionName)

	docs := make([]interface{}, 0, len(records))
	for _, record := range records {
		docs = append(docs, record)
	}

	if _, err := collection.InsertMany(ctx, docs); err != nil {
		r.logger.Error("Failed to archive invoices",
			"count", len(records),
			"error", err)
		return fmt.Errorf("failed to archive invoices: %w", err)
	}

	return nil
}

// GetLatestByOrderID retrieves the most recently archived invoice for an order.
// Returns ErrRecordNotFound if the order was never archived.
func (r *InvoiceRepository) GetLatestByOrderID(ctx context.Context, orderID string) (*invoice.Record, error) {
	collection := r.db.Collection(InvoiceCollectionName)

	filter := bson.M{"order_id": orderID}
	opts := options.FindOne().SetSort(bson.M{"archived_at": -1})

	var record invoice.Record
	err := collection.FindOne(ctx, filter, opts).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, invoice.ErrRecordNotFound{OrderID: orderID}
		}
		r.logger.Error("Failed to get archived invoice",
			"order_id", orderID,
			"error", err)
		return nil, fmt.Errorf("failed to get archived invoice: %w", err)
	}

	return &record, nil
}

// GetByRunID retrieves every invoice archived by a run, ordered by order ID
func (r *InvoiceRepository) GetByRunID(ctx context.Context, runID uuid.UUID) ([]*invoice.Record, error) {
	collection := r.db.Collection(InvoiceCollectionName)

	filter := bson.M{"run_id": runID}
	opts := options.Find().SetSort(bson.M{"order_id": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived invoices",
			"run_id", runID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived invoices: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*invoice.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode archived invoices",
			"run_id", runID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived invoices: %w", err)
	}

	return records, nil
}
