// Package service holds the service request use cases: intake, tracking
// and the stage transition applier.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"promise_backend/internal/events"
	"promise_backend/internal/servicerequests/domain"
	"promise_backend/internal/servicerequests/repository"
	"promise_backend/platform/apperr"
	"promise_backend/platform/config"
	"promise_backend/platform/logger"
	"promise_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	initialEventMessage = "Your repair request has been received and is being reviewed."
	defaultAdminActor   = "Admin"
)

// Repository is the persistence port used by the service.
// Implemented by *repository.Repository.
type Repository interface {
	Create(ctx context.Context, req *repository.ServiceRequest, initial repository.TimelineEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.ServiceRequest, error)
	GetByTicketNumber(ctx context.Context, ticketNumber string) (*repository.ServiceRequest, error)
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
	ListTimeline(ctx context.Context, serviceRequestID uuid.UUID) ([]repository.TimelineEvent, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, actor repository.Actor, decide repository.DecideFunc) (*repository.TransitionResult, error)
	UpdateTrackingStatus(ctx context.Context, id uuid.UUID, status string, event repository.TimelineEvent, guard repository.TrackingGuard) (*repository.ServiceRequest, *repository.TimelineEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*repository.ServiceRequest, error)
	AssignTechnician(ctx context.Context, id uuid.UUID, technician string) (*repository.JobTicket, error)
	UpdateQuote(ctx context.Context, id uuid.UUID, decide repository.QuoteDecideFunc) (*repository.ServiceRequest, *repository.TimelineEvent, error)
	UpdateExpectedDates(ctx context.Context, id uuid.UUID, dates repository.ExpectedDates) (*repository.ServiceRequest, error)
}

// Service provides business logic for service requests
type Service struct {
	repo     Repository
	eventBus events.Bus
	log      *logger.Logger
	phone    phone.Normalizer
	policy   domain.TransitionPolicy
	now      func() time.Time
}

// New creates a new service requests service
func New(repo Repository, cfg config.ServiceRequestConfig, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		log:    log,
		phone:  phone.NewNormalizer(cfg.GetPhoneDefaultRegion()),
		policy: domain.ParsePolicy(cfg.GetTransitionPolicy()),
		now:    time.Now,
	}
}

// SetEventBus injects the event bus used for post-commit notifications.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// Policy returns the active transition policy.
func (s *Service) Policy() domain.TransitionPolicy {
	return s.policy
}

// PhoneNormalizer exposes the configured normalizer for request validation.
func (s *Service) PhoneNormalizer() phone.Normalizer {
	return s.phone
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, evt)
	}
}

// persistence converts untyped repository errors into persistence failures.
// Typed errors (not found, conflicts) pass through unchanged.
func (s *Service) persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return err
	}
	s.log.DatabaseError(op, err)
	return apperr.Persistence(op, err)
}

// planError maps stage engine errors to API errors, keeping the sentinel
// reachable through errors.Is.
func planError(err error, flow domain.Flow) error {
	switch {
	case errors.Is(err, domain.ErrInvalidStageForFlow):
		return apperr.Wrap(apperr.KindValidation, err.Error(), err).
			WithDetails(map[string]any{"validStages": flow.Stages()})
	case errors.Is(err, domain.ErrBackwardTransition):
		return apperr.Wrap(apperr.KindConflict, err.Error(), err)
	default:
		return err
	}
}

// trackingError maps tracking status guard errors to validation failures.
func trackingError(status string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotConverted),
		errors.Is(err, domain.ErrNoJobTicket),
		errors.Is(err, domain.ErrTechnicianUnassigned):
		return apperr.Wrap(apperr.KindValidation, "cannot set '"+status+"' - "+err.Error(), err)
	default:
		return err
	}
}

// quoteError maps quote planning errors to API errors.
func quoteError(err error) error {
	switch {
	case errors.Is(err, domain.ErrQuoteAnswered),
		errors.Is(err, domain.ErrQuoteNotOpen),
		errors.Is(err, domain.ErrQuoteExpired):
		return apperr.Wrap(apperr.KindConflict, err.Error(), err)
	case errors.Is(err, domain.ErrNotQuoteRequest),
		errors.Is(err, domain.ErrInvalidServicePreference),
		errors.Is(err, domain.ErrPickupTierRequired),
		errors.Is(err, domain.ErrInvalidPickupTier):
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	default:
		return err
	}
}

func nilIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
