package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.propserve.dev/internal/common/metrics"
	"go.propserve.dev/internal/common/repository"
)

// DefaultChannelTimeout bounds one channel attempt so a slow provider
// cannot hold a dispatch goroutine indefinitely. Sibling channels are
// unaffected either way; each attempt runs under its own deadline.
const DefaultChannelTimeout = 30 * time.Second

// Dispatcher fans a notification event out over its requested channels.
//
// In-app is always attempted and is the only channel whose failure is
// returned as an error; email, SMS, and WhatsApp are best-effort with
// their failures captured in the per-channel outcome map. Channel
// attempts run concurrently and the caller receives a settle-all join.
type Dispatcher struct {
	repo           Repository
	senders        map[Channel]Sender
	channelTimeout time.Duration
}

// NewDispatcher creates a dispatcher with the given channel senders.
// An in-app sender must be among them.
func NewDispatcher(repo Repository, senders ...Sender) *Dispatcher {
	byChannel := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}

	return &Dispatcher{
		repo:           repo,
		senders:        byChannel,
		channelTimeout: DefaultChannelTimeout,
	}
}

// channelResult pairs an outcome with the channel it belongs to
type channelResult struct {
	channel Channel
	outcome Outcome
}

// Notify attempts delivery on every requested channel plus in-app and
// returns one outcome per channel. It returns an error only when the
// mandatory in-app notification could not be written; partial failures on
// other channels never surface as errors.
func (d *Dispatcher) Notify(ctx context.Context, event *Event) (map[Channel]Outcome, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	content := Render(event.Type, event.Payload)
	dedupeKey := event.EffectiveDedupeKey()
	channels := d.resolveChannels(event.Channels)

	results := make(chan channelResult, len(channels))
	var wg sync.WaitGroup

	for _, ch := range channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			results <- channelResult{channel: ch, outcome: d.attempt(ctx, ch, dedupeKey, event, content)}
		}(ch)
	}

	wg.Wait()
	close(results)

	outcomes := make(map[Channel]Outcome, len(channels))
	for r := range results {
		outcomes[r.channel] = r.outcome
	}

	if inApp := outcomes[ChannelInApp]; inApp.Status == OutcomeFailed {
		return outcomes, fmt.Errorf("in-app notification could not be written: %s", inApp.Error)
	}
	return outcomes, nil
}

// resolveChannels returns the deduplicated channel set with in-app first
func (d *Dispatcher) resolveChannels(requested []Channel) []Channel {
	channels := []Channel{ChannelInApp}
	seen := map[Channel]struct{}{ChannelInApp: {}}
	for _, ch := range requested {
		if !ValidChannel(ch) {
			slog.Warn("Ignoring unknown notification channel", "channel", string(ch))
			continue
		}
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		channels = append(channels, ch)
	}
	return channels
}

// attempt claims the (dedupeKey, channel) slot, sends, and finalizes the
// delivery record. All failure modes end up in the returned Outcome.
func (d *Dispatcher) attempt(ctx context.Context, ch Channel, dedupeKey string, event *Event, content *Content) Outcome {
	start := time.Now()

	sender, ok := d.senders[ch]
	if !ok {
		metrics.DispatchDeliveries.WithLabelValues(string(ch), "failed").Inc()
		return Outcome{Status: OutcomeFailed, Error: fmt.Sprintf("no sender configured for channel %s", ch)}
	}

	record := &DeliveryRecord{
		DedupeKey:   dedupeKey,
		Channel:     ch,
		EventType:   event.Type,
		RequestID:   event.RequestID,
		RecipientID: event.Recipient.ID,
	}

	if err := d.repo.ClaimDelivery(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Lost the race to an earlier or concurrent dispatch; the
			// notification has already been handled.
			metrics.DispatchDedupeSkips.WithLabelValues(string(ch)).Inc()
			metrics.DispatchDeliveries.WithLabelValues(string(ch), "skipped").Inc()
			return Outcome{Status: OutcomeSkipped}
		}
		slog.Error("Failed to claim delivery record",
			"error", err,
			"channel", ch,
			"dedupeKey", dedupeKey)
		metrics.DispatchDeliveries.WithLabelValues(string(ch), "failed").Inc()
		return Outcome{Status: OutcomeFailed, Error: fmt.Sprintf("claim delivery record: %v", err)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.channelTimeout)
	defer cancel()

	externalRef, err := sender.Send(sendCtx, event, content)
	metrics.DispatchDuration.WithLabelValues(string(ch)).Observe(time.Since(start).Seconds())

	if err != nil {
		d.finalize(ctx, record.ID, DeliveryFailed, "", err.Error())
		metrics.DispatchDeliveries.WithLabelValues(string(ch), "failed").Inc()
		slog.Warn("Channel delivery failed",
			"channel", ch,
			"eventType", event.Type,
			"requestId", event.RequestID,
			"error", err)
		return Outcome{Status: OutcomeFailed, Error: err.Error()}
	}

	d.finalize(ctx, record.ID, DeliverySuccess, externalRef, "")
	metrics.DispatchDeliveries.WithLabelValues(string(ch), "success").Inc()
	return Outcome{Status: OutcomeSuccess, ExternalRef: externalRef}
}

// finalize records the terminal state of a claimed delivery.
// A bookkeeping failure here is logged, not propagated: the send itself
// already happened (or failed) and the record stays PENDING at worst.
func (d *Dispatcher) finalize(ctx context.Context, recordID string, status DeliveryStatus, externalRef, errMsg string) {
	if err := d.repo.MarkDelivery(ctx, recordID, status, externalRef, errMsg); err != nil {
		slog.Error("Failed to finalize delivery record",
			"error", err,
			"recordId", recordID,
			"status", status)
	}
}
