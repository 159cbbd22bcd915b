package request

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

// mongoRepository provides MongoDB access to request data
type mongoRepository struct {
	requests *mongo.Collection
}

// NewRepository creates a new request repository with instrumentation
func NewRepository(db *mongo.Database) Repository {
	return newInstrumentedRepository(&mongoRepository{
		requests: db.Collection("requests"),
	})
}

// FindByID finds a request by ID
func (r *mongoRepository) FindByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindActive returns all requests in an SLA-relevant status
func (r *mongoRepository) FindActive(ctx context.Context) ([]*Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.requests.Find(ctx, bson.M{"status": bson.M{"$in": ActiveStatuses}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// Insert creates a new request
func (r *mongoRepository) Insert(ctx context.Context, req *Request) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	_, err := r.requests.InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// UpdateStatus transitions a request to a new status
func (r *mongoRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	result, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAssignee sets the assignee party on a request
func (r *mongoRepository) UpdateAssignee(ctx context.Context, id string, assignee Party) error {
	result, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"assignee":  assignee,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByStatus counts requests in a given status
func (r *mongoRepository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	return r.requests.CountDocuments(ctx, bson.M{"status": status})
}
