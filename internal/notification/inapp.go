package notification

import (
	"context"
)

// InAppSender writes notifications to the in-app store.
// This is the mandatory channel: the UI and audit trail depend on it, so
// the dispatcher surfaces its failure to the caller instead of recording
// it as a best-effort outcome.
type InAppSender struct {
	repo Repository
}

// NewInAppSender creates an in-app channel sender
func NewInAppSender(repo Repository) *InAppSender {
	return &InAppSender{repo: repo}
}

// Channel returns the channel this sender delivers on
func (s *InAppSender) Channel() Channel {
	return ChannelInApp
}

// Send inserts the in-app notification row and returns its ID
func (s *InAppSender) Send(ctx context.Context, event *Event, content *Content) (string, error) {
	if event.Recipient.ID == "" {
		return "", &ValidationError{Channel: ChannelInApp, Reason: "recipient id is empty"}
	}

	return s.repo.InsertInApp(ctx, &InApp{
		RecipientID: event.Recipient.ID,
		Title:       content.Title,
		Message:     content.Message,
		Severity:    event.Type.Severity(),
		RequestID:   event.RequestID,
	})
}
