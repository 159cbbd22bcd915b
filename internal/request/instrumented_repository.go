package request

import (
	"context"

	"go.propserve.dev/internal/common/repository"
)

const collectionRequests = "requests"

// instrumentedRepository wraps a Repository with metrics and logging
type instrumentedRepository struct {
	inner Repository
}

// newInstrumentedRepository creates an instrumented wrapper around a Repository
func newInstrumentedRepository(inner Repository) Repository {
	return &instrumentedRepository{inner: inner}
}

func (r *instrumentedRepository) FindByID(ctx context.Context, id string) (*Request, error) {
	return repository.Instrument(ctx, collectionRequests, "FindByID", func() (*Request, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *instrumentedRepository) FindActive(ctx context.Context) ([]*Request, error) {
	return repository.Instrument(ctx, collectionRequests, "FindActive", func() ([]*Request, error) {
		return r.inner.FindActive(ctx)
	})
}

func (r *instrumentedRepository) Insert(ctx context.Context, req *Request) error {
	return repository.InstrumentVoid(ctx, collectionRequests, "Insert", func() error {
		return r.inner.Insert(ctx, req)
	})
}

func (r *instrumentedRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	return repository.InstrumentVoid(ctx, collectionRequests, "UpdateStatus", func() error {
		return r.inner.UpdateStatus(ctx, id, status)
	})
}

func (r *instrumentedRepository) UpdateAssignee(ctx context.Context, id string, assignee Party) error {
	return repository.InstrumentVoid(ctx, collectionRequests, "UpdateAssignee", func() error {
		return r.inner.UpdateAssignee(ctx, id, assignee)
	})
}

func (r *instrumentedRepository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	return repository.Instrument(ctx, collectionRequests, "CountByStatus", func() (int64, error) {
		return r.inner.CountByStatus(ctx, status)
	})
}
