package notification

import (
	"context"

	"go.propserve.dev/internal/common/repository"
)

const (
	collectionDeliveries    = "delivery_records"
	collectionNotifications = "notifications"
)

// instrumentedRepository wraps a Repository with metrics and logging
type instrumentedRepository struct {
	inner Repository
}

// newInstrumentedRepository creates an instrumented wrapper around a Repository
func newInstrumentedRepository(inner Repository) Repository {
	return &instrumentedRepository{inner: inner}
}

func (r *instrumentedRepository) ClaimDelivery(ctx context.Context, record *DeliveryRecord) error {
	return repository.InstrumentVoid(ctx, collectionDeliveries, "ClaimDelivery", func() error {
		return r.inner.ClaimDelivery(ctx, record)
	})
}

func (r *instrumentedRepository) MarkDelivery(ctx context.Context, id string, status DeliveryStatus, externalRef, errorMessage string) error {
	return repository.InstrumentVoid(ctx, collectionDeliveries, "MarkDelivery", func() error {
		return r.inner.MarkDelivery(ctx, id, status, externalRef, errorMessage)
	})
}

func (r *instrumentedRepository) HasDelivery(ctx context.Context, dedupeKey string, channel Channel) (bool, error) {
	return repository.Instrument(ctx, collectionDeliveries, "HasDelivery", func() (bool, error) {
		return r.inner.HasDelivery(ctx, dedupeKey, channel)
	})
}

func (r *instrumentedRepository) FindDeliveriesByDedupeKey(ctx context.Context, dedupeKey string) ([]*DeliveryRecord, error) {
	return repository.Instrument(ctx, collectionDeliveries, "FindDeliveriesByDedupeKey", func() ([]*DeliveryRecord, error) {
		return r.inner.FindDeliveriesByDedupeKey(ctx, dedupeKey)
	})
}

func (r *instrumentedRepository) InsertInApp(ctx context.Context, n *InApp) (string, error) {
	return repository.Instrument(ctx, collectionNotifications, "InsertInApp", func() (string, error) {
		return r.inner.InsertInApp(ctx, n)
	})
}

func (r *instrumentedRepository) FindInAppByRecipient(ctx context.Context, recipientID string, skip, limit int64) ([]*InApp, error) {
	return repository.Instrument(ctx, collectionNotifications, "FindInAppByRecipient", func() ([]*InApp, error) {
		return r.inner.FindInAppByRecipient(ctx, recipientID, skip, limit)
	})
}

func (r *instrumentedRepository) MarkInAppRead(ctx context.Context, id string) error {
	return repository.InstrumentVoid(ctx, collectionNotifications, "MarkInAppRead", func() error {
		return r.inner.MarkInAppRead(ctx, id)
	})
}

func (r *instrumentedRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return repository.Instrument(ctx, collectionNotifications, "CountUnread", func() (int64, error) {
		return r.inner.CountUnread(ctx, recipientID)
	})
}
