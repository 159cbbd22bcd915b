package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.propserve.dev/internal/common/repository"
)

// mongoRepository provides MongoDB access to delivery records and
// in-app notifications
type mongoRepository struct {
	deliveries    *mongo.Collection
	notifications *mongo.Collection
}

// NewRepository creates a new notification repository with instrumentation
func NewRepository(db *mongo.Database) Repository {
	return newInstrumentedRepository(&mongoRepository{
		deliveries:    db.Collection("delivery_records"),
		notifications: db.Collection("notifications"),
	})
}

// === Delivery log operations ===

// ClaimDelivery inserts a PENDING delivery record.
// The unique index on (dedupeKey, channel) is what makes overlapping scans
// idempotent: the loser of a concurrent insert race gets ErrDuplicateKey.
func (r *mongoRepository) ClaimDelivery(ctx context.Context, record *DeliveryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.Status = DeliveryPending
	record.AttemptedAt = time.Now()

	_, err := r.deliveries.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// MarkDelivery finalizes a claimed record
func (r *mongoRepository) MarkDelivery(ctx context.Context, id string, status DeliveryStatus, externalRef, errorMessage string) error {
	update := bson.M{"status": status}
	if externalRef != "" {
		update["externalRef"] = externalRef
	}
	if errorMessage != "" {
		update["errorMessage"] = errorMessage
	}

	result, err := r.deliveries.UpdateOne(ctx,
		bson.M{"_id": id, "status": DeliveryPending},
		bson.M{"$set": update},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// HasDelivery reports whether a record exists for (dedupeKey, channel)
func (r *mongoRepository) HasDelivery(ctx context.Context, dedupeKey string, channel Channel) (bool, error) {
	err := r.deliveries.FindOne(ctx,
		bson.M{"dedupeKey": dedupeKey, "channel": channel},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindDeliveriesByDedupeKey returns all records for a dedupe key
func (r *mongoRepository) FindDeliveriesByDedupeKey(ctx context.Context, dedupeKey string) ([]*DeliveryRecord, error) {
	cursor, err := r.deliveries.Find(ctx, bson.M{"dedupeKey": dedupeKey})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*DeliveryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// === In-app operations ===

// InsertInApp writes an in-app notification row
func (r *mongoRepository) InsertInApp(ctx context.Context, n *InApp) (string, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now()

	_, err := r.notifications.InsertOne(ctx, n)
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

// FindInAppByRecipient returns a recipient's in-app feed, newest first
func (r *mongoRepository) FindInAppByRecipient(ctx context.Context, recipientID string, skip, limit int64) ([]*InApp, error) {
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.notifications.Find(ctx, bson.M{"recipientId": recipientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []*InApp
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkInAppRead marks an in-app notification as read
func (r *mongoRepository) MarkInAppRead(ctx context.Context, id string) error {
	result, err := r.notifications.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountUnread counts a recipient's unread in-app notifications
func (r *mongoRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return r.notifications.CountDocuments(ctx, bson.M{"recipientId": recipientID, "read": false})
}
