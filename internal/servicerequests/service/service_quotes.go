package service

import (
	"context"
	"strings"

	"promise_backend/internal/events"
	"promise_backend/internal/servicerequests/domain"
	"promise_backend/internal/servicerequests/repository"
	"promise_backend/internal/servicerequests/transport"
	"promise_backend/platform/apperr"
	"promise_backend/platform/sanitize"

	"github.com/google/uuid"
)

// SetQuote prices a quote request. A request that has not yet reached
// awaiting_customer is moved there; a quote can be repriced until the
// customer answers it.
func (s *Service) SetQuote(ctx context.Context, id uuid.UUID, actor Actor, req transport.SetQuoteRequest) (*transport.QuoteUpdateResponse, error) {
	who := s.timelineActor(actor, "")
	now := s.now().UTC()

	var offer domain.QuoteOffer
	sr, ev, err := s.repo.UpdateQuote(ctx, id, func(current repository.ServiceRequest) (repository.QuoteChange, error) {
		var err error
		offer, err = domain.PlanQuoteOffer(current.QuoteState(), now)
		if err != nil {
			return repository.QuoteChange{}, quoteError(err)
		}

		amount := req.QuoteAmount
		event := &repository.TimelineEvent{
			Status:  current.TrackingStatus,
			Message: domain.MessageFor(string(domain.StageAwaitingCustomer)),
			Actor:   who.Name,
			ActorID: who.ID,
		}
		change := repository.QuoteChange{
			QuoteStatus:    strPtr(domain.QuoteStatusQuoted),
			QuoteAmount:    &amount,
			QuoteNotes:     sanitize.Optional(req.QuoteNotes),
			SetNotes:       true,
			QuotedAt:       &offer.QuotedAt,
			QuoteExpiresAt: &offer.ExpiresAt,
			Event:          event,
		}
		// Like a transition, the move labels the event but leaves
		// tracking_status alone.
		if offer.Move != nil {
			from, to := string(offer.Move.From), string(offer.Move.To)
			event.Status = domain.TrackingStatusFor(to)
			event.FromStage, event.ToStage = &from, &to
		}
		return change, nil
	})
	if err != nil {
		return nil, s.persistence("set quote", err)
	}

	if offer.Move != nil {
		s.log.StageTransition(sr.ID.String(), string(offer.Move.From), string(offer.Move.To), who.Name)
	}

	s.publish(ctx, events.QuoteSent{
		BaseEvent:        events.NewBaseEvent(),
		ServiceRequestID: sr.ID,
		TicketNumber:     sr.TicketNumber,
		CustomerID:       sr.CustomerID,
		Amount:           req.QuoteAmount,
		ExpiresAt:        offer.ExpiresAt,
	})

	return quoteUpdateResponse(*sr, ev), nil
}

// AcceptQuote records a customer's acceptance of their own priced quote.
// Requests owned by someone else are reported as not found.
func (s *Service) AcceptQuote(ctx context.Context, customerID, id uuid.UUID, req transport.AcceptQuoteRequest) (*transport.TrackingResponse, error) {
	now := s.now().UTC()

	var acc domain.QuoteAcceptance
	sr, _, err := s.repo.UpdateQuote(ctx, id, func(current repository.ServiceRequest) (repository.QuoteChange, error) {
		if !ownedBy(current, customerID) {
			return repository.QuoteChange{}, apperr.NotFound("service request not found")
		}

		var err error
		acc, err = domain.PlanQuoteAcceptance(current.QuoteState(), req.ServicePreference, req.PickupTier, req.ScheduledVisitDate, now)
		if err != nil {
			return repository.QuoteChange{}, quoteError(err)
		}

		event := &repository.TimelineEvent{
			Status:  acc.TrackingStatus,
			Message: acc.Message,
			Actor:   current.CustomerName,
		}
		if acc.Move != nil {
			from, to := string(acc.Move.From), string(acc.Move.To)
			event.FromStage, event.ToStage = &from, &to
		}
		return repository.QuoteChange{
			QuoteStatus:        strPtr(domain.QuoteStatusAccepted),
			AcceptedAt:         &now,
			PickupTier:         acc.PickupTier,
			PickupCost:         &acc.PickupCost,
			TotalAmount:        &acc.TotalAmount,
			ScheduledVisitDate: acc.ScheduledVisit,
			ServicePreference:  &acc.ServicePreference,
			Address:            sanitize.Optional(req.Address),
			TrackingStatus:     &acc.TrackingStatus,
			Event:              event,
		}, nil
	})
	if err != nil {
		return nil, s.persistence("accept quote", err)
	}

	if acc.Move != nil {
		s.log.StageTransition(sr.ID.String(), string(acc.Move.From), string(acc.Move.To), sr.CustomerName)
	}

	s.publish(ctx, events.QuoteAnswered{
		BaseEvent:         events.NewBaseEvent(),
		ServiceRequestID:  sr.ID,
		TicketNumber:      sr.TicketNumber,
		CustomerID:        sr.CustomerID,
		CustomerName:      sr.CustomerName,
		Accepted:          true,
		ServicePreference: acc.ServicePreference,
		PickupTier:        deref(acc.PickupTier),
		TotalAmount:       acc.TotalAmount,
		TrackingStatus:    sr.TrackingStatus,
	})

	return s.tracking(ctx, *sr)
}

// DeclineQuote records a customer's refusal and closes the request.
func (s *Service) DeclineQuote(ctx context.Context, customerID, id uuid.UUID) (*transport.TrackingResponse, error) {
	sr, _, err := s.repo.UpdateQuote(ctx, id, func(current repository.ServiceRequest) (repository.QuoteChange, error) {
		if !ownedBy(current, customerID) {
			return repository.QuoteChange{}, apperr.NotFound("service request not found")
		}
		if err := domain.PlanQuoteDecline(current.QuoteState()); err != nil {
			return repository.QuoteChange{}, quoteError(err)
		}
		return repository.QuoteChange{
			QuoteStatus: strPtr(domain.QuoteStatusDeclined),
			Status:      strPtr(domain.RequestStatusClosed),
		}, nil
	})
	if err != nil {
		return nil, s.persistence("decline quote", err)
	}

	s.publish(ctx, events.QuoteAnswered{
		BaseEvent:        events.NewBaseEvent(),
		ServiceRequestID: sr.ID,
		TicketNumber:     sr.TicketNumber,
		CustomerID:       sr.CustomerID,
		CustomerName:     sr.CustomerName,
		TrackingStatus:   sr.TrackingStatus,
	})

	return s.tracking(ctx, *sr)
}

// UpdateStatus sets the internal admin status. Customers are not notified.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest) (*transport.QuoteUpdateResponse, error) {
	status := strings.TrimSpace(req.Status)
	if !domain.IsAdminSettableStatus(status) {
		return nil, apperr.Wrap(apperr.KindValidation, domain.ErrStatusNotAdminSettable.Error(), domain.ErrStatusNotAdminSettable)
	}

	sr, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, s.persistence("update status", err)
	}

	s.publish(ctx, events.ServiceRequestUpdated{
		BaseEvent:        events.NewBaseEvent(),
		ServiceRequestID: sr.ID,
		TicketNumber:     sr.TicketNumber,
		CustomerID:       sr.CustomerID,
		Status:           sr.Status,
		TrackingStatus:   sr.TrackingStatus,
	})

	return quoteUpdateResponse(*sr, nil), nil
}

// AssignTechnician names the technician on a converted request's job ticket
func (s *Service) AssignTechnician(ctx context.Context, id uuid.UUID, req transport.AssignTechnicianRequest) (*transport.JobTicketResponse, error) {
	technician := sanitize.Text(req.Technician)
	if technician == "" || technician == domain.UnassignedTechnician {
		return nil, apperr.Validation("technician name is required")
	}

	job, err := s.repo.AssignTechnician(ctx, id, technician)
	if err != nil {
		return nil, s.persistence("assign technician", err)
	}
	return toJobResponse(job), nil
}

func ownedBy(sr repository.ServiceRequest, customerID uuid.UUID) bool {
	return sr.CustomerID != nil && *sr.CustomerID == customerID
}

func quoteUpdateResponse(sr repository.ServiceRequest, ev *repository.TimelineEvent) *transport.QuoteUpdateResponse {
	resp := &transport.QuoteUpdateResponse{ServiceRequest: toResponse(sr)}
	if ev != nil {
		out := toEventResponse(*ev)
		resp.Event = &out
	}
	return resp
}

func strPtr(s string) *string { return &s }
