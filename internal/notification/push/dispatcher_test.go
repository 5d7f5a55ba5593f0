package push

import (
	"context"
	"errors"
	"testing"

	"promise_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	tokens      []string
	deactivated []string
	touched     []string
}

func (f *fakeStore) ActiveTokens(context.Context, uuid.UUID) ([]string, error) { return f.tokens, nil }
func (f *fakeStore) Deactivate(_ context.Context, token string) error {
	f.deactivated = append(f.deactivated, token)
	return nil
}
func (f *fakeStore) Touch(_ context.Context, token string) error {
	f.touched = append(f.touched, token)
	return nil
}

type fakeSender struct {
	results map[string]error
	sent    []Message
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return f.results[msg.Token]
}

func TestDeliverDeactivatesRejectedTokens(t *testing.T) {
	store := &fakeStore{tokens: []string{"good", "stale", "flaky"}}
	sender := &fakeSender{results: map[string]error{
		"stale": ErrInvalidToken,
		"flaky": errors.New("unavailable"),
	}}
	d := NewDispatcher(store, sender, logger.Nop())

	sent, err := d.Deliver(context.Background(), Notification{UserID: uuid.New(), Title: "t", Body: "b"})

	if sent != 1 {
		t.Fatalf("expected 1 delivery, got %d", sent)
	}
	if err != nil {
		t.Fatalf("partial delivery should not ask for a retry, got %v", err)
	}
	if len(store.deactivated) != 1 || store.deactivated[0] != "stale" {
		t.Fatalf("unexpected deactivations %v", store.deactivated)
	}
	if len(store.touched) != 1 || store.touched[0] != "good" {
		t.Fatalf("unexpected touches %v", store.touched)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("expected every token attempted, got %d", len(sender.sent))
	}
}

func TestDeliverWithoutDevices(t *testing.T) {
	d := NewDispatcher(&fakeStore{}, &fakeSender{}, logger.Nop())

	sent, err := d.Deliver(context.Background(), Notification{UserID: uuid.New()})
	if sent != 0 || err != nil {
		t.Fatalf("expected no-op, got %d %v", sent, err)
	}
}

func TestDeliverRetriedOnlyWhileNoDeviceReached(t *testing.T) {
	store := &fakeStore{tokens: []string{"good", "flaky"}}
	sender := &fakeSender{results: map[string]error{"flaky": errors.New("unavailable")}}
	d := NewDispatcher(store, sender, logger.Nop())
	n := Notification{UserID: uuid.New(), Title: "SRV-20260101-0001", Body: "Repairing"}

	// The queue retries for as long as Deliver reports an error.
	for attempt := 0; attempt < 3; attempt++ {
		if _, err := d.Deliver(context.Background(), n); err == nil {
			break
		}
	}

	reached := 0
	for _, msg := range sender.sent {
		if msg.Token == "good" {
			reached++
		}
	}
	if reached != 1 {
		t.Fatalf("device good received the push %d times", reached)
	}
}

func TestDeliverFailsWhenNoDeviceReached(t *testing.T) {
	store := &fakeStore{tokens: []string{"flaky", "stale"}}
	sender := &fakeSender{results: map[string]error{
		"flaky": errors.New("unavailable"),
		"stale": ErrInvalidToken,
	}}
	d := NewDispatcher(store, sender, logger.Nop())

	sent, err := d.Deliver(context.Background(), Notification{UserID: uuid.New()})
	if sent != 0 || err == nil || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected a retryable transient error, got %d %v", sent, err)
	}
}
