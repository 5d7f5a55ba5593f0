// Package servicerequests provides the service request bounded context:
// intake, public tracking and the staff stage workflow.
package servicerequests

import (
	"fmt"

	apphttp "promise_backend/internal/http"
	"promise_backend/internal/servicerequests/handler"
	"promise_backend/internal/servicerequests/repository"
	"promise_backend/internal/servicerequests/service"
	"promise_backend/internal/servicerequests/transport"
	"promise_backend/platform/config"
	"promise_backend/platform/events"
	"promise_backend/platform/logger"
	"promise_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the service requests domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new service requests module with all dependencies wired
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.ServiceRequestConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	svc.SetEventBus(eventBus)

	if err := transport.RegisterValidations(val, svc.PhoneNormalizer()); err != nil {
		return nil, fmt.Errorf("register service request validations: %w", err)
	}

	log.Info("service request workflow configured", "policy", string(svc.Policy()))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "servicerequests"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.V1, ctx.PublicRateLimiter.RateLimit())
	m.handler.RegisterCustomerRoutes(ctx.Protected.Group("/customer/service-requests"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/service-requests"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
