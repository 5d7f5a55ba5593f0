package service

import (
	"promise_backend/internal/servicerequests/domain"
	"promise_backend/internal/servicerequests/repository"
	"promise_backend/internal/servicerequests/transport"
)

func stageOptions(stages []domain.Stage) []transport.StageOption {
	out := make([]transport.StageOption, len(stages))
	for i, s := range stages {
		out[i] = transport.StageOption{Stage: s, Label: domain.Label(string(s))}
	}
	return out
}

func toResponse(sr repository.ServiceRequest) transport.ServiceRequestResponse {
	sel := domain.SelectFlow(deref(sr.RequestIntent), deref(sr.ServiceMode))
	stage := sr.Snapshot().CurrentStage()

	return transport.ServiceRequestResponse{
		ID:                 sr.ID,
		TicketNumber:       sr.TicketNumber,
		CustomerID:         sr.CustomerID,
		Brand:              sr.Brand,
		ScreenSize:         sr.ScreenSize,
		ModelNumber:        sr.ModelNumber,
		PrimaryIssue:       sr.PrimaryIssue,
		Description:        sr.Description,
		CustomerName:       sr.CustomerName,
		Phone:              sr.Phone,
		Address:            sr.Address,
		ServicePreference:  sr.ServicePreference,
		Status:             sr.Status,
		TrackingStatus:     sr.TrackingStatus,
		RequestIntent:      sel.Intent,
		ServiceMode:        sel.Mode,
		Stage:              string(stage),
		StageLabel:         domain.Label(string(stage)),
		Flow:               stageOptions(sel.Flow.Stages()),
		Progress:           sel.Flow.Progress(stage),
		ConvertedJobID:     sr.ConvertedJobID,
		ExpectedPickupDate: sr.ExpectedPickupDate,
		ExpectedReturnDate: sr.ExpectedReturnDate,
		ExpectedReadyDate:  sr.ExpectedReadyDate,
		Quote:              toQuoteResponse(sr),
		CreatedAt:          sr.CreatedAt,
		UpdatedAt:          sr.UpdatedAt,
	}
}

// toQuoteResponse is nil until a quote has been priced.
func toQuoteResponse(sr repository.ServiceRequest) *transport.QuoteResponse {
	if sr.QuoteStatus == nil {
		return nil
	}
	return &transport.QuoteResponse{
		Status:             *sr.QuoteStatus,
		Amount:             sr.QuoteAmount,
		Notes:              sr.QuoteNotes,
		QuotedAt:           sr.QuotedAt,
		ExpiresAt:          sr.QuoteExpiresAt,
		AcceptedAt:         sr.AcceptedAt,
		PickupTier:         sr.PickupTier,
		PickupCost:         sr.PickupCost,
		TotalAmount:        sr.TotalAmount,
		ScheduledVisitDate: sr.ScheduledVisitDate,
	}
}

func toEventResponse(ev repository.TimelineEvent) transport.TimelineEventResponse {
	return transport.TimelineEventResponse{
		ID:         ev.ID,
		Status:     ev.Status,
		Message:    ev.Message,
		Actor:      ev.Actor,
		FromStage:  ev.FromStage,
		ToStage:    ev.ToStage,
		OccurredAt: ev.OccurredAt,
	}
}

func toEventResponses(evs []repository.TimelineEvent) []transport.TimelineEventResponse {
	out := make([]transport.TimelineEventResponse, len(evs))
	for i, ev := range evs {
		out[i] = toEventResponse(ev)
	}
	return out
}

func toJobResponse(job *repository.JobTicket) *transport.JobTicketResponse {
	if job == nil {
		return nil
	}
	return &transport.JobTicketResponse{
		ID:         job.ID,
		Customer:   job.Customer,
		Device:     job.Device,
		Issue:      job.Issue,
		Status:     job.Status,
		Priority:   job.Priority,
		Technician: job.Technician,
		CreatedAt:  job.CreatedAt,
	}
}

func toTrackingResponse(sr repository.ServiceRequest, timeline []repository.TimelineEvent) transport.TrackingResponse {
	sel := domain.SelectFlow(deref(sr.RequestIntent), deref(sr.ServiceMode))
	stage := sr.Snapshot().CurrentStage()

	return transport.TrackingResponse{
		TicketNumber:       sr.TicketNumber,
		Brand:              sr.Brand,
		ScreenSize:         sr.ScreenSize,
		PrimaryIssue:       sr.PrimaryIssue,
		TrackingStatus:     sr.TrackingStatus,
		Stage:              string(stage),
		StageLabel:         domain.Label(string(stage)),
		RequestIntent:      sel.Intent,
		ServiceMode:        sel.Mode,
		Progress:           sel.Flow.Progress(stage),
		Steps:              sel.Flow.CustomerSteps(),
		ExpectedPickupDate: sr.ExpectedPickupDate,
		ExpectedReturnDate: sr.ExpectedReturnDate,
		ExpectedReadyDate:  sr.ExpectedReadyDate,
		Quote:              toQuoteResponse(sr),
		Timeline:           toEventResponses(timeline),
		CreatedAt:          sr.CreatedAt,
	}
}
