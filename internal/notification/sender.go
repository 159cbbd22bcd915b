package notification

import "context"

// Sender delivers rendered content over one channel.
// Implementations validate their own recipient contact before attempting
// delivery and return a *ValidationError when the precondition fails.
type Sender interface {
	// Channel returns the channel this sender delivers on
	Channel() Channel

	// Send attempts delivery and returns an external reference on success
	Send(ctx context.Context, event *Event, content *Content) (string, error)
}
