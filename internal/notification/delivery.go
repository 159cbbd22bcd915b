package notification

import (
	"fmt"
	"time"
)

// DeliveryStatus is the state of one (dedupe key, channel) delivery attempt
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySuccess DeliveryStatus = "SUCCESS"
	DeliveryFailed  DeliveryStatus = "FAILED"
)

// DeliveryRecord is the persisted record of one delivery attempt.
// Collection: delivery_records, unique index on (dedupeKey, channel).
// A record existing for a key+channel suppresses a repeat send; records
// move PENDING -> SUCCESS/FAILED once and are never mutated afterwards.
type DeliveryRecord struct {
	ID           string         `bson:"_id" json:"id"`
	DedupeKey    string         `bson:"dedupeKey" json:"dedupeKey"`
	Channel      Channel        `bson:"channel" json:"channel"`
	EventType    EventType      `bson:"eventType" json:"eventType"`
	RequestID    string         `bson:"requestId,omitempty" json:"requestId,omitempty"`
	RecipientID  string         `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	Status       DeliveryStatus `bson:"status" json:"status"`
	ExternalRef  string         `bson:"externalRef,omitempty" json:"externalRef,omitempty"`
	ErrorMessage string         `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	AttemptedAt  time.Time      `bson:"attemptedAt" json:"attemptedAt"`
}

// OutcomeStatus is the caller-visible result for one channel
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome is the per-channel result of a Notify call
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	ExternalRef string        `json:"externalRef,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// InApp is a persisted in-app notification row; this is the channel the
// UI and audit trail depend on.
// Collection: notifications
type InApp struct {
	ID          string    `bson:"_id" json:"id"`
	RecipientID string    `bson:"recipientId" json:"recipientId"`
	Title       string    `bson:"title" json:"title"`
	Message     string    `bson:"message" json:"message"`
	Severity    string    `bson:"severity" json:"severity"`
	RequestID   string    `bson:"requestId,omitempty" json:"requestId,omitempty"`
	Read        bool      `bson:"read" json:"read"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// ValidationError reports a malformed recipient contact detected before a
// channel attempts delivery. It is recorded in that channel's outcome and
// never propagated to the caller.
type ValidationError struct {
	Channel Channel
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for channel %s: %s", e.Channel, e.Reason)
}
