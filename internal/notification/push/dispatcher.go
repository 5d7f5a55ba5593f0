package push

import (
	"context"
	"errors"

	"promise_backend/platform/logger"

	"github.com/google/uuid"
)

// TokenStore is what the dispatcher needs from the token repository
type TokenStore interface {
	ActiveTokens(ctx context.Context, userID uuid.UUID) ([]string, error)
	Deactivate(ctx context.Context, token string) error
	Touch(ctx context.Context, token string) error
}

// Notification is a push addressed to a user rather than a device
type Notification struct {
	UserID uuid.UUID
	Title  string
	Body   string
	Data   map[string]string
}

// Dispatcher sends a notification to every active device of a user
type Dispatcher struct {
	tokens TokenStore
	sender Sender
	log    *logger.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(tokens TokenStore, sender Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{tokens: tokens, sender: sender, log: log}
}

// Deliver returns the number of devices reached. Rejected tokens are
// deactivated and do not count as errors. Transient failures are returned
// only when no device was reached: once any device has the push, a retry
// would deliver it there again, so the remaining failures are logged
// instead.
func (d *Dispatcher) Deliver(ctx context.Context, n Notification) (int, error) {
	tokens, err := d.tokens.ActiveTokens(ctx, n.UserID)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, token := range tokens {
		err := d.sender.Send(ctx, Message{Token: token, Title: n.Title, Body: n.Body, Data: n.Data})
		switch {
		case err == nil:
			sent++
			if touchErr := d.tokens.Touch(ctx, token); touchErr != nil {
				d.log.Warn("failed to touch device token", "error", touchErr)
			}
		case errors.Is(err, ErrInvalidToken):
			d.log.Info("deactivating rejected device token", "userId", n.UserID)
			if deactErr := d.tokens.Deactivate(ctx, token); deactErr != nil {
				d.log.Warn("failed to deactivate device token", "error", deactErr)
			}
		default:
			errs = append(errs, err)
		}
	}

	failed := errors.Join(errs...)
	if failed != nil && sent > 0 {
		d.log.Warn("push reached some devices only", "userId", n.UserID, "sent", sent, "failed", len(errs), "error", failed)
		return sent, nil
	}
	return sent, failed
}
