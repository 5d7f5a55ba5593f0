package scheduler

import (
	"context"
	"errors"
	"testing"

	"promise_backend/internal/notification/push"
	"promise_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeDeliverer struct {
	got []push.Notification
	err error
}

func (f *fakeDeliverer) Deliver(_ context.Context, n push.Notification) (int, error) {
	f.got = append(f.got, n)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func TestHandlePushSendDelivers(t *testing.T) {
	deliverer := &fakeDeliverer{}
	w := newWorker(deliverer, logger.Nop())
	userID := uuid.New()

	task, err := NewPushSendTask(PushSendPayload{
		UserID: userID.String(),
		Title:  "SRV-20260101-0001: Repairing",
		Body:   "Repair work is in progress.",
		Data:   map[string]string{"stage": "in_repair"},
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := w.mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(deliverer.got) != 1 {
		t.Fatalf("expected one delivery, got %d", len(deliverer.got))
	}
	n := deliverer.got[0]
	if n.UserID != userID || n.Body != "Repair work is in progress." || n.Data["stage"] != "in_repair" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestHandlePushSendSkipsRetryForBadPayload(t *testing.T) {
	w := newWorker(&fakeDeliverer{}, logger.Nop())

	err := w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskPushSend, []byte(`{"userId":"nope"}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}

	err = w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskPushSend, []byte(`{`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed json, got %v", err)
	}
}

func TestHandlePushSendRetriesDeliveryFailure(t *testing.T) {
	w := newWorker(&fakeDeliverer{err: errors.New("fcm unavailable")}, logger.Nop())
	task, _ := NewPushSendTask(PushSendPayload{UserID: uuid.NewString()})

	err := w.mux.ProcessTask(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

type tokenList []string

func (l tokenList) ActiveTokens(context.Context, uuid.UUID) ([]string, error) { return l, nil }
func (tokenList) Deactivate(context.Context, string) error                   { return nil }
func (tokenList) Touch(context.Context, string) error                        { return nil }

type countingSender struct {
	failing map[string]bool
	counts  map[string]int
}

func (s *countingSender) Send(_ context.Context, msg push.Message) error {
	s.counts[msg.Token]++
	if s.failing[msg.Token] {
		return errors.New("unavailable")
	}
	return nil
}

func TestHandlePushSendPartialDeliveryIsNotRetried(t *testing.T) {
	sender := &countingSender{failing: map[string]bool{"tablet": true}, counts: map[string]int{}}
	w := newWorker(push.NewDispatcher(tokenList{"phone", "tablet"}, sender, logger.Nop()), logger.Nop())
	task, _ := NewPushSendTask(PushSendPayload{UserID: uuid.NewString(), Title: "SRV-20260101-0001"})

	for attempt := 0; attempt < 3; attempt++ {
		if err := w.mux.ProcessTask(context.Background(), task); err == nil {
			break
		}
	}

	if sender.counts["phone"] != 1 {
		t.Fatalf("phone received the push %d times", sender.counts["phone"])
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://:secret@cache.internal:6380/2", true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected opt %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}

	plain, err := redisClientOpt("redis://localhost:6379", false)
	if err != nil {
		t.Fatalf("parse plain: %v", err)
	}
	if plain.TLSConfig != nil {
		t.Fatal("plain redis must not use TLS")
	}
}
