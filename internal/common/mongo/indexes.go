package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexDefinition defines a MongoDB index
type IndexDefinition struct {
	Collection string
	Keys       bson.D
	Options    *options.IndexOptions
}

// IndexInitializer creates indexes on startup
type IndexInitializer struct {
	client *Client
}

// NewIndexInitializer creates a new index initializer
func NewIndexInitializer(client *Client) *IndexInitializer {
	return &IndexInitializer{client: client}
}

// Initialize creates all required indexes
func (i *IndexInitializer) Initialize(ctx context.Context) error {
	indexes := i.getIndexDefinitions()

	for _, idx := range indexes {
		if err := i.createIndex(ctx, idx); err != nil {
			slog.Warn("Failed to create index (may already exist)",
				"error", err,
				"collection", idx.Collection)
		}
	}

	slog.Info("Index initialization complete", "count", len(indexes))
	return nil
}

func (i *IndexInitializer) createIndex(ctx context.Context, idx IndexDefinition) error {
	collection := i.client.Collection(idx.Collection)

	indexModel := mongo.IndexModel{
		Keys:    idx.Keys,
		Options: idx.Options,
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (i *IndexInitializer) getIndexDefinitions() []IndexDefinition {
	return []IndexDefinition{
		// requests
		{
			Collection: "requests",
			Keys:       bson.D{{Key: "status", Value: 1}},
		},
		{
			Collection: "requests",
			Keys:       bson.D{{Key: "status", Value: 1}, {Key: "acceptDue", Value: 1}},
		},
		{
			Collection: "requests",
			Keys:       bson.D{{Key: "propertyId", Value: 1}},
			Options:    options.Index().SetSparse(true),
		},
		{
			Collection: "requests",
			Keys:       bson.D{{Key: "createdAt", Value: 1}},
		},

		// delivery_records
		//
		// The unique (dedupeKey, channel) index is the idempotency
		// guarantee for overlapping scans; everything else depends on it.
		{
			Collection: "delivery_records",
			Keys:       bson.D{{Key: "dedupeKey", Value: 1}, {Key: "channel", Value: 1}},
			Options:    options.Index().SetUnique(true),
		},
		{
			Collection: "delivery_records",
			Keys:       bson.D{{Key: "requestId", Value: 1}},
			Options:    options.Index().SetSparse(true),
		},
		{
			Collection: "delivery_records",
			Keys:       bson.D{{Key: "attemptedAt", Value: 1}},
			Options:    options.Index().SetExpireAfterSeconds(int32(90 * 24 * time.Hour / time.Second)),
		},

		// notifications (in-app)
		{
			Collection: "notifications",
			Keys:       bson.D{{Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Collection: "notifications",
			Keys:       bson.D{{Key: "recipientId", Value: 1}, {Key: "read", Value: 1}},
		},
	}
}
