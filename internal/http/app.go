// Package http holds what the router needs from the composition root: the
// assembled modules and the few shared dependencies they cannot own.
package http

import (
	"context"

	"promise_backend/platform/config"
	"promise_backend/platform/logger"
)

// RouterConfig is the configuration slice the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/health. The pgx pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is built once in cmd/api and handed to router.New. A nil Health
// reports the API as up without checking storage.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}
