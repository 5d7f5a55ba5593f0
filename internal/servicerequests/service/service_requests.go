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

// Create stores a new request at the intake stage together with its first
// timeline event. customerID is set when a signed-in customer submits.
func (s *Service) Create(ctx context.Context, customerID *uuid.UUID, req transport.CreateServiceRequestRequest) (*transport.ServiceRequestResponse, error) {
	mode := req.ServiceMode
	if mode == "" {
		switch req.ServicePreference {
		case "home_pickup":
			mode = string(domain.ModePickup)
		case "service_center":
			mode = string(domain.ModeServiceCenter)
		}
	}

	sr := repository.ServiceRequest{
		ID:                uuid.New(),
		CustomerID:        customerID,
		Brand:             sanitize.Text(req.Brand),
		ScreenSize:        sanitize.Optional(req.ScreenSize),
		ModelNumber:       sanitize.Optional(req.ModelNumber),
		PrimaryIssue:      sanitize.Text(req.PrimaryIssue),
		Description:       sanitize.Optional(req.Description),
		CustomerName:      sanitize.Text(req.CustomerName),
		Phone:             s.phone.E164(req.Phone),
		Address:           sanitize.Optional(req.Address),
		ServicePreference: nilIfEmpty(req.ServicePreference),
		Status:            domain.RequestStatusPending,
		TrackingStatus:    domain.InitialTrackingStatus(req.ServicePreference),
		RequestIntent:     nilIfEmpty(req.RequestIntent),
		ServiceMode:       nilIfEmpty(mode),
		Stage:             string(domain.StageIntake),
	}

	initial := repository.TimelineEvent{
		Status:  domain.TrackingRequestReceived,
		Message: initialEventMessage,
		Actor:   repository.SystemActor.Name,
	}

	if err := s.repo.Create(ctx, &sr, initial); err != nil {
		return nil, s.persistence("create service request", err)
	}

	s.publish(ctx, events.ServiceRequestCreated{
		BaseEvent:        events.NewBaseEvent(),
		ServiceRequestID: sr.ID,
		TicketNumber:     sr.TicketNumber,
		CustomerID:       sr.CustomerID,
		CustomerName:     sr.CustomerName,
		Brand:            sr.Brand,
		TrackingStatus:   sr.TrackingStatus,
	})

	resp := toResponse(sr)
	return &resp, nil
}

// GetByID returns the admin view of a request including its flow position
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.ServiceRequestResponse, error) {
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistence("get service request", err)
	}
	resp := toResponse(*sr)
	return &resp, nil
}

// Track returns the public tracker for a ticket number
func (s *Service) Track(ctx context.Context, ticketNumber string) (*transport.TrackingResponse, error) {
	sr, err := s.repo.GetByTicketNumber(ctx, strings.ToUpper(strings.TrimSpace(ticketNumber)))
	if err != nil {
		return nil, s.persistence("track service request", err)
	}
	return s.tracking(ctx, *sr)
}

// GetForCustomer returns the tracker for one of the caller's own requests.
// Requests owned by someone else are reported as not found.
func (s *Service) GetForCustomer(ctx context.Context, customerID, id uuid.UUID) (*transport.TrackingResponse, error) {
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistence("get customer service request", err)
	}
	if sr.CustomerID == nil || *sr.CustomerID != customerID {
		return nil, apperr.NotFound("service request not found")
	}
	return s.tracking(ctx, *sr)
}

func (s *Service) tracking(ctx context.Context, sr repository.ServiceRequest) (*transport.TrackingResponse, error) {
	timeline, err := s.repo.ListTimeline(ctx, sr.ID)
	if err != nil {
		return nil, s.persistence("list timeline", err)
	}
	resp := toTrackingResponse(sr, timeline)
	return &resp, nil
}

// List returns a filtered page of requests for the admin dashboard
func (s *Service) List(ctx context.Context, q transport.ListServiceRequestsQuery) (*transport.ListResponse, error) {
	return s.list(ctx, repository.ListParams{
		Stage:          nilIfEmpty(q.Stage),
		TrackingStatus: nilIfEmpty(q.TrackingStatus),
		Search:         strings.TrimSpace(q.Search),
		SortBy:         q.SortBy,
		SortOrder:      q.SortOrder,
		Page:           q.Page,
		PageSize:       q.PageSize,
	})
}

// ListForCustomer returns the caller's own requests, newest first
func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID, q transport.ListServiceRequestsQuery) (*transport.ListResponse, error) {
	return s.list(ctx, repository.ListParams{
		CustomerID: &customerID,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
}

func (s *Service) list(ctx context.Context, params repository.ListParams) (*transport.ListResponse, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, s.persistence("list service requests", err)
	}

	items := make([]transport.ServiceRequestResponse, len(result.Items))
	for i, sr := range result.Items {
		items[i] = toResponse(sr)
	}

	return &transport.ListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Timeline returns a request's history, oldest first
func (s *Service) Timeline(ctx context.Context, id uuid.UUID) ([]transport.TimelineEventResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, s.persistence("get service request", err)
	}
	timeline, err := s.repo.ListTimeline(ctx, id)
	if err != nil {
		return nil, s.persistence("list timeline", err)
	}
	return toEventResponses(timeline), nil
}

// NextStages lists the stages the request can move to under the active policy
func (s *Service) NextStages(ctx context.Context, id uuid.UUID) (*transport.NextStagesResponse, error) {
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistence("get service request", err)
	}

	snap := sr.Snapshot()
	sel := s.selectFlow(sr.ID, snap)
	current := snap.CurrentStage()

	return &transport.NextStagesResponse{
		CurrentStage: string(current),
		Policy:       string(s.policy),
		Stages:       stageOptions(domain.ReachableStages(sel.Flow, current, s.policy)),
	}, nil
}

// StageFlows describes every workflow and the tracking status vocabulary
func (s *Service) StageFlows() transport.StageFlowsResponse {
	flows := domain.AllFlows()
	out := make([]transport.StageFlowResponse, len(flows))
	for i, f := range flows {
		out[i] = transport.StageFlowResponse{
			Name:          f.Name(),
			RequestIntent: f.Intent(),
			ServiceMode:   f.Mode(),
			Stages:        stageOptions(f.Stages()),
		}
	}
	return transport.StageFlowsResponse{
		Flows:            out,
		TrackingStatuses: domain.TrackingStatuses(),
		Policy:           string(s.policy),
	}
}

// selectFlow picks the flow for a stored request and logs when malformed or
// missing intent/mode values were replaced by defaults.
func (s *Service) selectFlow(id uuid.UUID, snap domain.Snapshot) domain.Selection {
	sel := domain.SelectFlow(snap.Intent, snap.Mode)
	if sel.Coerced {
		s.log.StageCoerced(id.String(), snap.Intent, snap.Mode, string(sel.Intent), string(sel.Mode))
	}
	return sel
}
