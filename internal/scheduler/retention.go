package scheduler

import (
	"context"
	"time"

	"promise_backend/platform/logger"
)

const (
	defaultRetentionInterval = time.Hour
	defaultReadRetention     = 90 * 24 * time.Hour
	defaultTokenRetention    = 30 * 24 * time.Hour
)

// NotificationPurger deletes read customer notifications.
type NotificationPurger interface {
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

// TokenPurger deletes deactivated device tokens.
type TokenPurger interface {
	DeleteInactiveBefore(ctx context.Context, before time.Time) (int64, error)
}

// NotificationRetention periodically prunes old read notifications and dead
// device tokens.
type NotificationRetention struct {
	notifications  NotificationPurger
	tokens         TokenPurger
	log            *logger.Logger
	interval       time.Duration
	readRetention  time.Duration
	tokenRetention time.Duration
	now            func() time.Time
}

func NewNotificationRetention(notifications NotificationPurger, tokens TokenPurger, log *logger.Logger, interval, readRetention, tokenRetention time.Duration) *NotificationRetention {
	if interval <= 0 {
		interval = defaultRetentionInterval
	}
	if readRetention <= 0 {
		readRetention = defaultReadRetention
	}
	if tokenRetention <= 0 {
		tokenRetention = defaultTokenRetention
	}

	return &NotificationRetention{
		notifications:  notifications,
		tokens:         tokens,
		log:            log,
		interval:       interval,
		readRetention:  readRetention,
		tokenRetention: tokenRetention,
		now:            time.Now,
	}
}

func (r *NotificationRetention) Run(ctx context.Context) {
	if r == nil {
		return
	}

	r.cleanup(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup(ctx)
		}
	}
}

func (r *NotificationRetention) cleanup(ctx context.Context) {
	now := r.now()

	if deleted, err := r.notifications.DeleteReadBefore(ctx, now.Add(-r.readRetention)); err != nil {
		r.log.Warn("notification retention failed", "error", err)
	} else if deleted > 0 {
		r.log.Info("notification retention deleted read notifications", "deleted", deleted)
	}

	if deleted, err := r.tokens.DeleteInactiveBefore(ctx, now.Add(-r.tokenRetention)); err != nil {
		r.log.Warn("device token retention failed", "error", err)
	} else if deleted > 0 {
		r.log.Info("device token retention deleted inactive tokens", "deleted", deleted)
	}
}
