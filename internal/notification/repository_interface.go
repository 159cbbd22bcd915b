package notification

import "context"

// Repository provides access to the delivery log and in-app notifications
type Repository interface {
	// ClaimDelivery inserts a PENDING delivery record, claiming the
	// (dedupeKey, channel) slot. Returns repository.ErrDuplicateKey when a
	// record already exists, which callers treat as a benign skip.
	ClaimDelivery(ctx context.Context, record *DeliveryRecord) error

	// MarkDelivery finalizes a claimed record as SUCCESS or FAILED
	MarkDelivery(ctx context.Context, id string, status DeliveryStatus, externalRef, errorMessage string) error

	// HasDelivery reports whether a record exists for (dedupeKey, channel)
	HasDelivery(ctx context.Context, dedupeKey string, channel Channel) (bool, error)

	// FindDeliveriesByDedupeKey returns all records for a dedupe key
	FindDeliveriesByDedupeKey(ctx context.Context, dedupeKey string) ([]*DeliveryRecord, error)

	// InsertInApp writes an in-app notification row and returns its ID
	InsertInApp(ctx context.Context, n *InApp) (string, error)

	// FindInAppByRecipient returns a recipient's in-app feed, newest first
	FindInAppByRecipient(ctx context.Context, recipientID string, skip, limit int64) ([]*InApp, error)

	// MarkInAppRead marks an in-app notification as read
	MarkInAppRead(ctx context.Context, id string) error

	// CountUnread counts a recipient's unread in-app notifications
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}
