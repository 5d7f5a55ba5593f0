// Package relay fans SSE envelopes out across API instances over Redis
// pub/sub so a client connected to any instance sees every event.
package relay

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"promise_backend/internal/notification/sse"
	"promise_backend/platform/config"
	"promise_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Dispatcher delivers an envelope to locally connected clients.
type Dispatcher interface {
	Dispatch(env sse.Envelope) int
}

// Relay publishes envelopes to a Redis channel and dispatches every message
// received on it, including its own, to the local hub.
type Relay struct {
	client  *redis.Client
	channel string
	local   Dispatcher
	log     *logger.Logger
}

// New connects to Redis using the realtime settings.
func New(cfg config.RealtimeConfig, local Dispatcher, log *logger.Logger) (*Relay, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return NewWithClient(redis.NewClient(opt), cfg.GetSSERedisChannel(), local, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, channel string, local Dispatcher, log *logger.Logger) *Relay {
	return &Relay{client: client, channel: channel, local: local, log: log}
}

// Broadcast publishes the envelope to every instance.
func (r *Relay) Broadcast(ctx context.Context, env sse.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

// Run subscribes to the channel and dispatches messages until ctx is done.
// ready, when non-nil, is closed once the subscription is confirmed.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	r.log.Info("sse relay subscribed", "channel", r.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env sse.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn("sse relay dropped malformed message", "error", err)
				continue
			}
			r.local.Dispatch(env)
		}
	}
}

// Ping checks Redis connectivity.
func (r *Relay) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (r *Relay) Close() error {
	return r.client.Close()
}
