package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.propserve.dev/internal/common/repository"
)

// fakeRepository is an in-memory Repository for dispatcher tests.
// It enforces the same (dedupeKey, channel) uniqueness the Mongo index does.
type fakeRepository struct {
	mu        sync.Mutex
	records   map[string]*DeliveryRecord // keyed by dedupeKey:channel
	inApp     []*InApp
	nextID    int
	claimErr  error
	insertErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[string]*DeliveryRecord)}
}

func (f *fakeRepository) ClaimDelivery(ctx context.Context, record *DeliveryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claimErr != nil {
		return f.claimErr
	}

	key := record.DedupeKey + ":" + string(record.Channel)
	if _, exists := f.records[key]; exists {
		return repository.ErrDuplicateKey
	}

	f.nextID++
	record.ID = fmt.Sprintf("rec-%d", f.nextID)
	record.Status = DeliveryPending
	f.records[key] = record
	return nil
}

func (f *fakeRepository) MarkDelivery(ctx context.Context, id string, status DeliveryStatus, externalRef, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.records {
		if r.ID == id {
			r.Status = status
			r.ExternalRef = externalRef
			r.ErrorMessage = errorMessage
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepository) HasDelivery(ctx context.Context, dedupeKey string, channel Channel) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[dedupeKey+":"+string(channel)]
	return ok, nil
}

func (f *fakeRepository) FindDeliveriesByDedupeKey(ctx context.Context, dedupeKey string) ([]*DeliveryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*DeliveryRecord
	for _, r := range f.records {
		if r.DedupeKey == dedupeKey {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepository) InsertInApp(ctx context.Context, n *InApp) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return "", f.insertErr
	}

	f.nextID++
	n.ID = fmt.Sprintf("inapp-%d", f.nextID)
	f.inApp = append(f.inApp, n)
	return n.ID, nil
}

func (f *fakeRepository) FindInAppByRecipient(ctx context.Context, recipientID string, skip, limit int64) ([]*InApp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*InApp
	for _, n := range f.inApp {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepository) MarkInAppRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.inApp {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, n := range f.inApp {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

// fakeSender is a scripted channel sender
type fakeSender struct {
	channel Channel
	ref     string
	err     error
	calls   int
	mu      sync.Mutex
}

func (s *fakeSender) Channel() Channel { return s.channel }

func (s *fakeSender) Send(ctx context.Context, event *Event, content *Content) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.ref, s.err
}

func (s *fakeSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testEvent(channels ...Channel) *Event {
	return &Event{
		Type:      EventSLAViolation,
		RequestID: "req-1",
		Recipient: Recipient{ID: "tenant-1", Email: "tenant@example.com", Phone: "+15551234567"},
		Channels:  channels,
		Payload:   Payload{RequestTitle: "Burst pipe", DeadlineType: "accept"},
	}
}

func TestNotify_AllChannelsSucceed(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp, ref: "inapp-ref"}
	email := &fakeSender{channel: ChannelEmail, ref: "email-ref"}

	d := NewDispatcher(repo, inApp, email)

	outcomes, err := d.Notify(context.Background(), testEvent(ChannelEmail))
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[ChannelInApp].Status != OutcomeSuccess {
		t.Errorf("Expected in-app success, got %+v", outcomes[ChannelInApp])
	}
	if outcomes[ChannelEmail].Status != OutcomeSuccess {
		t.Errorf("Expected email success, got %+v", outcomes[ChannelEmail])
	}
	if outcomes[ChannelEmail].ExternalRef != "email-ref" {
		t.Errorf("Expected external ref, got %q", outcomes[ChannelEmail].ExternalRef)
	}
}

func TestNotify_PartialFailureIsNotAnError(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp}
	email := &fakeSender{channel: ChannelEmail, err: errors.New("smtp connect refused")}
	sms := &fakeSender{channel: ChannelSMS, ref: "sms-123"}

	d := NewDispatcher(repo, inApp, email, sms)

	outcomes, err := d.Notify(context.Background(), testEvent(ChannelEmail, ChannelSMS))
	if err != nil {
		t.Fatalf("Expected nil error for non-in-app failure, got %v", err)
	}

	if outcomes[ChannelEmail].Status != OutcomeFailed {
		t.Errorf("Expected email failed, got %+v", outcomes[ChannelEmail])
	}
	if outcomes[ChannelEmail].Error == "" {
		t.Error("Expected email outcome to carry the error")
	}
	if outcomes[ChannelSMS].Status != OutcomeSuccess {
		t.Errorf("Expected sms success, got %+v", outcomes[ChannelSMS])
	}
}

func TestNotify_InAppFailureIsAnError(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp, err: errors.New("write failed")}

	d := NewDispatcher(repo, inApp)

	outcomes, err := d.Notify(context.Background(), testEvent())
	if err == nil {
		t.Fatal("Expected error when in-app delivery fails")
	}
	if outcomes[ChannelInApp].Status != OutcomeFailed {
		t.Errorf("Expected in-app failed outcome, got %+v", outcomes[ChannelInApp])
	}
}

func TestNotify_DedupeSuppressesRepeatSend(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp}
	email := &fakeSender{channel: ChannelEmail}

	d := NewDispatcher(repo, inApp, email)

	event := testEvent(ChannelEmail)
	event.DedupeKey = ScanDedupeKey("req-1", "accept", BucketViolation)

	if _, err := d.Notify(context.Background(), event); err != nil {
		t.Fatalf("First notify failed: %v", err)
	}

	// Same logical event again; both channels must be skipped with no
	// second send.
	repeat := testEvent(ChannelEmail)
	repeat.DedupeKey = event.DedupeKey

	outcomes, err := d.Notify(context.Background(), repeat)
	if err != nil {
		t.Fatalf("Repeat notify failed: %v", err)
	}

	if outcomes[ChannelInApp].Status != OutcomeSkipped {
		t.Errorf("Expected in-app skipped, got %+v", outcomes[ChannelInApp])
	}
	if outcomes[ChannelEmail].Status != OutcomeSkipped {
		t.Errorf("Expected email skipped, got %+v", outcomes[ChannelEmail])
	}
	if got := email.callCount(); got != 1 {
		t.Errorf("Expected 1 email send total, got %d", got)
	}
}

func TestNotify_DistinctEventsWithoutDedupeKeyBothSend(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp}

	d := NewDispatcher(repo, inApp)

	if _, err := d.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("First notify failed: %v", err)
	}
	if _, err := d.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Second notify failed: %v", err)
	}

	// Each event got its own ID, hence its own dedupe key
	if got := inApp.callCount(); got != 2 {
		t.Errorf("Expected 2 in-app sends, got %d", got)
	}
}

func TestNotify_UnknownChannelIgnored(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp}

	d := NewDispatcher(repo, inApp)

	event := testEvent(Channel("CARRIER_PIGEON"))
	outcomes, err := d.Notify(context.Background(), event)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(outcomes) != 1 {
		t.Errorf("Expected only the in-app outcome, got %d outcomes", len(outcomes))
	}
	if _, ok := outcomes[Channel("CARRIER_PIGEON")]; ok {
		t.Error("Expected no outcome for an unknown channel")
	}
}

func TestNotify_DuplicateRequestedChannelsCollapsed(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp}
	email := &fakeSender{channel: ChannelEmail}

	d := NewDispatcher(repo, inApp, email)

	outcomes, err := d.Notify(context.Background(), testEvent(ChannelEmail, ChannelEmail, ChannelInApp))
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(outcomes) != 2 {
		t.Errorf("Expected 2 outcomes, got %d", len(outcomes))
	}
	if got := email.callCount(); got != 1 {
		t.Errorf("Expected 1 email send, got %d", got)
	}
}

func TestNotify_MissingSenderReportsFailure(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp}

	d := NewDispatcher(repo, inApp)

	outcomes, err := d.Notify(context.Background(), testEvent(ChannelSMS))
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if outcomes[ChannelSMS].Status != OutcomeFailed {
		t.Errorf("Expected failed outcome for unconfigured channel, got %+v", outcomes[ChannelSMS])
	}
}

func TestNotify_ClaimErrorReportsFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.claimErr = errors.New("mongo unavailable")
	inApp := &fakeSender{channel: ChannelInApp}

	d := NewDispatcher(repo, inApp)

	outcomes, err := d.Notify(context.Background(), testEvent())
	if err == nil {
		t.Fatal("Expected error when the in-app claim fails")
	}
	if outcomes[ChannelInApp].Status != OutcomeFailed {
		t.Errorf("Expected failed outcome, got %+v", outcomes[ChannelInApp])
	}
	if got := inApp.callCount(); got != 0 {
		t.Errorf("Expected no send after a failed claim, got %d", got)
	}
}

func TestNotify_FinalizesDeliveryRecords(t *testing.T) {
	repo := newFakeRepository()
	inApp := &fakeSender{channel: ChannelInApp, ref: "n-1"}
	email := &fakeSender{channel: ChannelEmail, err: errors.New("boom")}

	d := NewDispatcher(repo, inApp, email)

	event := testEvent(ChannelEmail)
	event.DedupeKey = "fixed-key"

	if _, err := d.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	records, err := repo.FindDeliveriesByDedupeKey(context.Background(), "fixed-key")
	if err != nil {
		t.Fatalf("FindDeliveriesByDedupeKey failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 delivery records, got %d", len(records))
	}

	for _, r := range records {
		switch r.Channel {
		case ChannelInApp:
			if r.Status != DeliverySuccess {
				t.Errorf("Expected in-app record SUCCESS, got %s", r.Status)
			}
			if r.ExternalRef != "n-1" {
				t.Errorf("Expected external ref n-1, got %q", r.ExternalRef)
			}
		case ChannelEmail:
			if r.Status != DeliveryFailed {
				t.Errorf("Expected email record FAILED, got %s", r.Status)
			}
			if r.ErrorMessage == "" {
				t.Error("Expected error message on failed record")
			}
		}
	}
}

func TestInAppSender_RequiresRecipientID(t *testing.T) {
	repo := newFakeRepository()
	sender := NewInAppSender(repo)

	event := testEvent()
	event.Recipient.ID = ""

	_, err := sender.Send(context.Background(), event, &Content{Title: "t", Message: "m"})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if vErr.Channel != ChannelInApp {
		t.Errorf("Expected in-app channel on validation error, got %s", vErr.Channel)
	}
}

func TestInAppSender_WritesRow(t *testing.T) {
	repo := newFakeRepository()
	sender := NewInAppSender(repo)

	event := testEvent()
	id, err := sender.Send(context.Background(), event, &Content{Title: "SLA deadline missed", Message: "details"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if id == "" {
		t.Error("Expected inserted row ID")
	}

	rows, _ := repo.FindInAppByRecipient(context.Background(), "tenant-1", 0, 10)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 in-app row, got %d", len(rows))
	}
	if rows[0].Severity != SeverityCritical {
		t.Errorf("Expected CRITICAL severity for a violation, got %s", rows[0].Severity)
	}
	if rows[0].Read {
		t.Error("Expected new row to be unread")
	}
}
