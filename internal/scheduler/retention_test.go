package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"promise_backend/platform/logger"
)

type fakePurger struct {
	before time.Time
	err    error
}

func (f *fakePurger) DeleteReadBefore(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 2, f.err
}

func (f *fakePurger) DeleteInactiveBefore(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 1, f.err
}

func TestRetentionCutoffs(t *testing.T) {
	notifications := &fakePurger{}
	tokens := &fakePurger{}
	r := NewNotificationRetention(notifications, tokens, logger.Nop(), 0, 0, 0)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.cleanup(context.Background())

	if !notifications.before.Equal(now.Add(-defaultReadRetention)) {
		t.Fatalf("unexpected notification cutoff %s", notifications.before)
	}
	if !tokens.before.Equal(now.Add(-defaultTokenRetention)) {
		t.Fatalf("unexpected token cutoff %s", tokens.before)
	}
	if r.interval != defaultRetentionInterval {
		t.Fatalf("unexpected interval %s", r.interval)
	}
}

func TestRetentionContinuesAfterFailure(t *testing.T) {
	notifications := &fakePurger{err: errors.New("db down")}
	tokens := &fakePurger{}
	r := NewNotificationRetention(notifications, tokens, logger.Nop(), time.Minute, time.Hour, time.Hour)

	r.cleanup(context.Background())

	if tokens.before.IsZero() {
		t.Fatal("token purge must run even when notification purge fails")
	}
}

func TestRetentionRunStopsOnCancel(t *testing.T) {
	r := NewNotificationRetention(&fakePurger{}, &fakePurger{}, logger.Nop(), time.Hour, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}
