// Package notification provides the notification event model, template
// engine, delivery log, and the multi-channel dispatcher.
package notification

import (
	"fmt"
	"time"
)

// Channel is one notification delivery mechanism
type Channel string

const (
	ChannelInApp    Channel = "IN_APP"
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
)

// ValidChannel reports whether c is a known channel
func ValidChannel(c Channel) bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

// EventType identifies the business event a notification is about.
// The set is closed; the template engine has a template per type.
type EventType string

const (
	EventRequestCreated   EventType = "REQUEST_CREATED"
	EventStatusUpdated    EventType = "STATUS_UPDATED"
	EventVendorAssigned   EventType = "VENDOR_ASSIGNED"
	EventSLAWarning       EventType = "SLA_WARNING"
	EventSLAViolation     EventType = "SLA_VIOLATION"
	EventRequestCompleted EventType = "REQUEST_COMPLETED"
)

// Severity levels for in-app notifications
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Severity returns the in-app severity for an event type
func (t EventType) Severity() string {
	switch t {
	case EventSLAWarning:
		return SeverityWarning
	case EventSLAViolation:
		return SeverityCritical
	}
	return SeverityInfo
}

// Recipient holds the addressee of a notification event.
// Email and Phone are optional; a channel that needs a missing contact
// fails its own validation without affecting the other channels.
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Payload carries the template data for an event.
// Optional fields left zero are omitted from rendered output.
type Payload struct {
	RequestTitle string     `json:"requestTitle,omitempty"`
	OldStatus    string     `json:"oldStatus,omitempty"`
	NewStatus    string     `json:"newStatus,omitempty"`
	AssigneeName string     `json:"assigneeName,omitempty"`
	DeadlineType string     `json:"deadlineType,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// Event is a transient notification event handed to the dispatcher.
// It is built by the violation scanner or directly by a business action
// (status change, vendor assignment, completion) and is never persisted
// itself; only its per-channel DeliveryRecords are.
type Event struct {
	ID        string
	Type      EventType
	RequestID string
	Recipient Recipient
	Channels  []Channel
	Payload   Payload

	// DedupeKey suppresses repeat sends for the same logical event.
	// Scanner events derive it from (request, deadline type, threshold);
	// direct business events leave it empty and the dispatcher keys the
	// delivery log by the event ID instead.
	DedupeKey string

	OccurredAt time.Time
}

// EffectiveDedupeKey returns the dedupe key for the delivery log
func (e *Event) EffectiveDedupeKey() string {
	if e.DedupeKey != "" {
		return e.DedupeKey
	}
	return e.ID
}

// ScanDedupeKey builds the dedupe key for a scanner-originated event so a
// request crossing the same threshold in overlapping scans is notified once.
func ScanDedupeKey(requestID, deadlineType, bucket string) string {
	return fmt.Sprintf("%s:%s:%s", requestID, deadlineType, bucket)
}

// Threshold buckets for scanner dedupe keys
const (
	BucketWarning   = "warning"
	BucketViolation = "violation"
)
