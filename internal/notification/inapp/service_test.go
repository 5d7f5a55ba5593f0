package inapp

import (
	"context"
	"errors"
	"testing"

	"promise_backend/internal/notification/sse"
	"promise_backend/platform/logger"

	"github.com/google/uuid"
)

type memStore struct {
	Store
	created   []CreateParams
	limit     int
	offset    int
	createErr error
}

func (m *memStore) Create(_ context.Context, p CreateParams) (Notification, error) {
	if m.createErr != nil {
		return Notification{}, m.createErr
	}
	m.created = append(m.created, p)
	return Notification{ID: uuid.New(), UserID: p.UserID, Title: p.Title, Content: p.Content, Category: p.Category}, nil
}

func (m *memStore) List(_ context.Context, _ uuid.UUID, limit, offset int) ([]Notification, int, error) {
	m.limit, m.offset = limit, offset
	return nil, 0, nil
}

type captureBroadcaster struct {
	envs []sse.Envelope
}

func (c *captureBroadcaster) Broadcast(_ context.Context, env sse.Envelope) error {
	c.envs = append(c.envs, env)
	return nil
}

func TestSendPersistsThenBroadcasts(t *testing.T) {
	store := &memStore{}
	live := &captureBroadcaster{}
	svc := NewService(store, logger.Nop())
	svc.SetBroadcaster(live)

	userID := uuid.New()
	requestID := uuid.New()
	_, err := svc.Send(context.Background(), SendParams{
		UserID:           userID,
		ServiceRequestID: requestID,
		TicketNumber:     "SRV-20260101-0001",
		Title:            "Ready for Pickup",
		Content:          "Your device is ready for pickup.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(store.created) != 1 || store.created[0].Category != CategoryInfo || *store.created[0].ServiceRequestID != requestID {
		t.Fatalf("unexpected persisted params %+v", store.created)
	}
	if len(live.envs) != 1 || live.envs[0].Audience.UserID != userID || live.envs[0].Audience.Admins {
		t.Fatalf("expected one customer-only envelope, got %+v", live.envs)
	}
}

func TestSendSkipsBroadcastOnPersistFailure(t *testing.T) {
	live := &captureBroadcaster{}
	svc := NewService(&memStore{createErr: errors.New("db down")}, logger.Nop())
	svc.SetBroadcaster(live)

	if _, err := svc.Send(context.Background(), SendParams{UserID: uuid.New(), Title: "t", Content: "c"}); err == nil {
		t.Fatal("expected error")
	}
	if len(live.envs) != 0 {
		t.Fatal("nothing should be broadcast when persistence fails")
	}
}

func TestListClampsPaging(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, logger.Nop())

	_, _, _ = svc.List(context.Background(), uuid.New(), 0, 500)
	if store.limit != 100 || store.offset != 0 {
		t.Fatalf("expected clamp to 100/0, got %d/%d", store.limit, store.offset)
	}

	_, _, _ = svc.List(context.Background(), uuid.New(), 3, 0)
	if store.limit != 20 || store.offset != 40 {
		t.Fatalf("expected 20/40, got %d/%d", store.limit, store.offset)
	}
}
