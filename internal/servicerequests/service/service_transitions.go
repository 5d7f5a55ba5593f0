package service

import (
	"context"
	"strings"

	"promise_backend/internal/events"
	"promise_backend/internal/servicerequests/domain"
	"promise_backend/internal/servicerequests/repository"
	"promise_backend/internal/servicerequests/transport"
	"promise_backend/platform/apperr"

	"github.com/google/uuid"
)

// Actor identifies who performs an admin action
type Actor struct {
	ID   uuid.UUID
	Name string
}

func (s *Service) timelineActor(actor Actor, override string) repository.Actor {
	name := strings.TrimSpace(override)
	if name == "" {
		name = strings.TrimSpace(actor.Name)
	}
	if name == "" {
		name = defaultAdminActor
	}
	out := repository.Actor{Name: name}
	if actor.ID != uuid.Nil {
		id := actor.ID
		out.ID = &id
	}
	return out
}

// TransitionStage moves a request to another stage of its flow. Validation
// runs against the locked row; on failure nothing is written. On success the
// stage, an optional job ticket and one timeline event commit together and
// notifications go out afterwards.
func (s *Service) TransitionStage(ctx context.Context, id uuid.UUID, actor Actor, req transport.TransitionStageRequest) (*transport.TransitionResponse, error) {
	who := s.timelineActor(actor, req.ActorName)

	result, err := s.repo.ApplyTransition(ctx, id, who, func(current repository.ServiceRequest) (domain.Plan, error) {
		snap := current.Snapshot()
		sel := s.selectFlow(current.ID, snap)

		plan, err := domain.PlanTransition(snap, strings.TrimSpace(req.Stage), s.policy)
		if err != nil {
			return domain.Plan{}, planError(err, sel.Flow)
		}
		return plan, nil
	})
	if err != nil {
		return nil, s.persistence("apply stage transition", err)
	}

	sr := result.Request
	s.log.StageTransition(sr.ID.String(), string(result.Plan.From), string(result.Plan.To), who.Name)

	s.publish(ctx, events.ServiceRequestStageChanged{
		BaseEvent:        events.NewBaseEvent(),
		ServiceRequestID: sr.ID,
		TicketNumber:     sr.TicketNumber,
		CustomerID:       sr.CustomerID,
		FromStage:        string(result.Plan.From),
		ToStage:          string(result.Plan.To),
		TrackingStatus:   result.Event.Status,
		Message:          result.Event.Message,
		Actor:            who.Name,
	})

	if result.JobTicket != nil {
		s.publish(ctx, events.JobTicketCreated{
			BaseEvent:        events.NewBaseEvent(),
			JobTicketID:      result.JobTicket.ID,
			ServiceRequestID: sr.ID,
			TicketNumber:     sr.TicketNumber,
			Customer:         result.JobTicket.Customer,
			Device:           result.JobTicket.Device,
		})
	}

	return &transport.TransitionResponse{
		ServiceRequest: toResponse(sr),
		Event:          toEventResponse(result.Event),
		JobTicket:      toJobResponse(result.JobTicket),
	}, nil
}

// UpdateTrackingStatus sets the coarse tracking status and logs it on the
// timeline. The stage is left untouched. "Technician Assigned" needs a
// converted request whose job ticket names a technician.
func (s *Service) UpdateTrackingStatus(ctx context.Context, id uuid.UUID, actor Actor, req transport.UpdateTrackingStatusRequest) (*transport.TrackingStatusResponse, error) {
	if !domain.IsTrackingStatus(req.TrackingStatus) {
		return nil, apperr.Validation("unknown tracking status").
			WithDetails(map[string]any{"trackingStatuses": domain.TrackingStatuses()})
	}

	who := s.timelineActor(actor, "")
	sr, ev, err := s.repo.UpdateTrackingStatus(ctx, id, req.TrackingStatus, repository.TimelineEvent{
		Status:  req.TrackingStatus,
		Message: domain.TrackingMessageFor(req.TrackingStatus),
		Actor:   who.Name,
		ActorID: who.ID,
	}, func(current repository.ServiceRequest, job *repository.JobTicket) error {
		assignment := domain.JobAssignment{}
		if job != nil {
			assignment = domain.JobAssignment{Found: true, Technician: job.Technician}
		}
		return trackingError(req.TrackingStatus,
			domain.CheckTrackingStatus(req.TrackingStatus, current.RequestState(), assignment))
	})
	if err != nil {
		return nil, s.persistence("update tracking status", err)
	}

	s.publish(ctx, events.ServiceRequestUpdated{
		BaseEvent:        events.NewBaseEvent(),
		ServiceRequestID: sr.ID,
		TicketNumber:     sr.TicketNumber,
		CustomerID:       sr.CustomerID,
		TrackingStatus:   sr.TrackingStatus,
		Message:          ev.Message,
	})

	return &transport.TrackingStatusResponse{
		ServiceRequest: toResponse(*sr),
		Event:          toEventResponse(*ev),
	}, nil
}

// UpdateExpectedDates replaces the schedule estimates shown to the customer
func (s *Service) UpdateExpectedDates(ctx context.Context, id uuid.UUID, req transport.UpdateExpectedDatesRequest) (*transport.ServiceRequestResponse, error) {
	sr, err := s.repo.UpdateExpectedDates(ctx, id, repository.ExpectedDates{
		Pickup: req.ExpectedPickupDate,
		Return: req.ExpectedReturnDate,
		Ready:  req.ExpectedReadyDate,
	})
	if err != nil {
		return nil, s.persistence("update expected dates", err)
	}

	s.publish(ctx, events.ServiceRequestUpdated{
		BaseEvent:        events.NewBaseEvent(),
		ServiceRequestID: sr.ID,
		TicketNumber:     sr.TicketNumber,
		CustomerID:       sr.CustomerID,
		TrackingStatus:   sr.TrackingStatus,
		ExpectedPickup:   sr.ExpectedPickupDate,
		ExpectedReturn:   sr.ExpectedReturnDate,
		ExpectedReady:    sr.ExpectedReadyDate,
	})

	resp := toResponse(*sr)
	return &resp, nil
}
