package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promise_backend/internal/events"
	apphttp "promise_backend/internal/http"
	"promise_backend/internal/http/router"
	"promise_backend/internal/notification"
	"promise_backend/internal/notification/push"
	"promise_backend/internal/notification/relay"
	"promise_backend/internal/notification/sse"
	"promise_backend/internal/scheduler"
	"promise_backend/internal/servicerequests"
	"promise_backend/platform/config"
	"promise_backend/platform/db"
	"promise_backend/platform/logger"
	"promise_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Live updates: local hub, optionally fanned out through Redis
	hub := sse.New(log)
	defer hub.Close()

	var sseRelay *relay.Relay
	if cfg.IsRealtimeRelayEnabled() {
		sseRelay, err = relay.New(cfg, hub, log)
		if err != nil {
			log.Error("failed to initialize sse relay", "error", err)
			panic("failed to initialize sse relay: " + err.Error())
		}
		defer func() { _ = sseRelay.Close() }()
	} else {
		log.Warn("REDIS_URL not configured; sse delivery limited to this instance")
	}

	pushQueue, closeQueue := initPushQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Domain Modules
	// ========================================================================

	serviceRequestsModule, err := servicerequests.NewModule(pool, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize service requests module", "error", err)
		panic("failed to initialize service requests module: " + err.Error())
	}

	notificationModule := notification.New(pool, hub, val, log)
	if sseRelay != nil {
		notificationModule.SetBroadcaster(sseRelay)
	}
	switch {
	case !cfg.IsPushEnabled():
		log.Info("FCM_SERVER_KEY not configured; push notifications disabled")
	case pushQueue != nil:
		notificationModule.SetPushQueue(pushQueue)
	default:
		// No queue available; deliver from the bus handler instead.
		dispatcher := push.NewDispatcher(notificationModule.Tokens(), push.NewFCMSender(cfg), log)
		notificationModule.SetPushQueue(notification.InlinePushQueue{Dispatcher: dispatcher})
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			serviceRequestsModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if sseRelay != nil {
		g.Go(func() error {
			return sseRelay.Run(gctx, nil)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Streaming SSE handlers only return once their channels close; the
		// closed hub also turns away clients that connect during shutdown.
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	eventBus.Wait()
	log.Info("server stopped")
}

func initPushQueue(cfg *config.Config, log *logger.Logger) (notification.PushQueue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; push notifications are not queued")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
