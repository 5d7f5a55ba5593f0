package scheduler

import (
	"context"
	"fmt"

	"promise_backend/internal/notification/push"
	"promise_backend/platform/config"
	"promise_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// PushDeliverer sends a notification to a user's devices.
type PushDeliverer interface {
	Deliver(ctx context.Context, n push.Notification) (int, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	push   PushDeliverer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, deliverer PushDeliverer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(deliverer, log)
	w.server = server
	return w, nil
}

func newWorker(deliverer PushDeliverer, log *logger.Logger) *Worker {
	w := &Worker{
		mux:  asynq.NewServeMux(),
		push: deliverer,
		log:  log,
	}
	w.mux.HandleFunc(TaskPushSend, w.handlePushSend)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePushSend(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePushSendPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id %q", asynq.SkipRetry, payload.UserID)
	}

	sent, err := w.push.Deliver(ctx, push.Notification{
		UserID: userID,
		Title:  payload.Title,
		Body:   payload.Body,
		Data:   payload.Data,
	})
	if err != nil {
		w.log.Warn("push reached no device, will retry", "userId", userID, "error", err)
		return err
	}

	w.log.Debug("push delivered", "userId", userID, "devices", sent)
	return nil
}
