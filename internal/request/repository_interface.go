package request

import "context"

// Repository provides access to maintenance request data
type Repository interface {
	// FindByID finds a request by ID
	FindByID(ctx context.Context, id string) (*Request, error)

	// FindActive returns all requests in an SLA-relevant status
	// (Open, Assigned, InProgress)
	FindActive(ctx context.Context) ([]*Request, error)

	// Insert creates a new request
	Insert(ctx context.Context, req *Request) error

	// UpdateStatus transitions a request to a new status
	UpdateStatus(ctx context.Context, id string, status Status) error

	// UpdateAssignee sets the assignee party on a request
	UpdateAssignee(ctx context.Context, id string, assignee Party) error

	// CountByStatus counts requests in a given status
	CountByStatus(ctx context.Context, status Status) (int64, error)
}
