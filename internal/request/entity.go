package request

import (
	"time"

	"go.propserve.dev/internal/sla"
)

// Status defines the lifecycle state of a maintenance request
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// ActiveStatuses are the statuses still subject to SLA scanning
var ActiveStatuses = []Status{StatusOpen, StatusAssigned, StatusInProgress}

// Party identifies a person attached to a request (reporter or assignee)
type Party struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Request represents a maintenance request against a property
// Collection: requests
type Request struct {
	ID         string       `bson:"_id" json:"id"`
	Title      string       `bson:"title" json:"title"`
	PropertyID string       `bson:"propertyId,omitempty" json:"propertyId,omitempty"`
	Priority   sla.Priority `bson:"priority" json:"priority"`
	Status     Status       `bson:"status" json:"status"`
	Reporter   Party        `bson:"reporter" json:"reporter"`
	Assignee   *Party       `bson:"assignee,omitempty" json:"assignee,omitempty"`
	Notes      string       `bson:"notes,omitempty" json:"notes,omitempty"`

	// Deadlines are derived once at creation from priority and createdAt
	// and are read-only afterwards.
	AcceptDue   time.Time `bson:"acceptDue" json:"acceptDue"`
	ArriveDue   time.Time `bson:"arriveDue" json:"arriveDue"`
	CompleteDue time.Time `bson:"completeDue" json:"completeDue"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsActive returns true if the request is still subject to SLA scanning
func (r *Request) IsActive() bool {
	switch r.Status {
	case StatusOpen, StatusAssigned, StatusInProgress:
		return true
	}
	return false
}

// LiveDeadline returns the deadline gated by the current status.
// The second return value is false for terminal statuses.
func (r *Request) LiveDeadline() (DeadlineType, time.Time, bool) {
	switch r.Status {
	case StatusOpen:
		return DeadlineAccept, r.AcceptDue, true
	case StatusAssigned:
		return DeadlineArrive, r.ArriveDue, true
	case StatusInProgress:
		return DeadlineComplete, r.CompleteDue, true
	}
	return "", time.Time{}, false
}

// Recipient returns the party SLA alerts for this request go to:
// the assignee once one is set, otherwise the reporter.
func (r *Request) Recipient() Party {
	if r.Assignee != nil && r.Assignee.ID != "" {
		return *r.Assignee
	}
	return r.Reporter
}

// DeadlineType identifies which of the three deadlines is meant
type DeadlineType string

const (
	DeadlineAccept   DeadlineType = "accept"
	DeadlineArrive   DeadlineType = "arrive"
	DeadlineComplete DeadlineType = "complete"
)

// ValidStatus reports whether s is a known request status
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
