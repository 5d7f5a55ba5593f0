package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"promise_backend/internal/servicerequests/domain"
	"promise_backend/internal/servicerequests/transport"
	"promise_backend/platform/apperr"

	"github.com/google/uuid"
)

func createRequest(t *testing.T, svc *Service, intent, mode string) *transport.ServiceRequestResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), nil, transport.CreateServiceRequestRequest{
		Brand:         "Walton",
		PrimaryIssue:  "Display Issue",
		CustomerName:  "Karim",
		Phone:         "01712-345678",
		RequestIntent: intent,
		ServiceMode:   mode,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return resp
}

func TestCreateStartsAtIntakeWithInitialEvent(t *testing.T) {
	svc, repo, bus := newTestService("forward")

	resp, err := svc.Create(context.Background(), nil, transport.CreateServiceRequestRequest{
		Brand:             "Sony",
		PrimaryIssue:      "Power Issue",
		CustomerName:      "  Nadia ",
		Description:       "<script>x</script>Lines across the panel",
		Phone:             "01712-345678",
		ServicePreference: "home_pickup",
		RequestIntent:     "quote",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if resp.Stage != string(domain.StageIntake) || resp.Progress.Index != 0 {
		t.Fatalf("unexpected stage %q progress %+v", resp.Stage, resp.Progress)
	}
	if resp.Phone != "+8801712345678" {
		t.Fatalf("phone not normalized: %q", resp.Phone)
	}
	if resp.CustomerName != "Nadia" {
		t.Fatalf("name not trimmed: %q", resp.CustomerName)
	}
	if resp.Description == nil || *resp.Description != "xLines across the panel" {
		t.Fatalf("description not sanitized: %v", resp.Description)
	}
	if resp.TrackingStatus != domain.TrackingArrivingToReceive {
		t.Fatalf("tracking status %q", resp.TrackingStatus)
	}
	if resp.ServiceMode != domain.ModePickup || resp.RequestIntent != domain.IntentQuote {
		t.Fatalf("flow %s+%s", resp.RequestIntent, resp.ServiceMode)
	}

	timeline := repo.timeline(resp.ID)
	if len(timeline) != 1 || timeline[0].Actor != "System" || timeline[0].Status != domain.TrackingRequestReceived {
		t.Fatalf("unexpected initial timeline %+v", timeline)
	}
	if got := bus.names(); !reflect.DeepEqual(got, []string{"service_request.created"}) {
		t.Fatalf("published %v", got)
	}
}

func TestTransitionRejectsStageOutsideFlowWithoutWriting(t *testing.T) {
	svc, repo, bus := newTestService("forward")
	sr := createRequest(t, svc, "repair", "pickup")
	writesBefore := repo.writeCount()
	publishedBefore := len(bus.names())

	_, err := svc.TransitionStage(context.Background(), sr.ID, Actor{Name: "Rahim"}, transport.TransitionStageRequest{Stage: "awaiting_dropoff"})

	if !errors.Is(err, domain.ErrInvalidStageForFlow) {
		t.Fatalf("expected ErrInvalidStageForFlow, got %v", err)
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", apperr.GetKind(err))
	}
	if repo.writeCount() != writesBefore {
		t.Fatal("rejected transition wrote to the store")
	}
	if len(repo.timeline(sr.ID)) != 1 {
		t.Fatal("rejected transition created a timeline event")
	}
	got, _ := svc.GetByID(context.Background(), sr.ID)
	if got.Stage != string(domain.StageIntake) {
		t.Fatalf("stage changed to %q", got.Stage)
	}
	if len(bus.names()) != publishedBefore {
		t.Fatal("rejected transition published a notification")
	}
}

func TestTransitionAppendsExactlyOneEventAndReadsBack(t *testing.T) {
	svc, repo, bus := newTestService("forward")
	sr := createRequest(t, svc, "repair", "pickup")

	resp, err := svc.TransitionStage(context.Background(), sr.ID, Actor{ID: uuid.New(), Name: "Rahim"}, transport.TransitionStageRequest{Stage: "assessment"})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}

	timeline := repo.timeline(sr.ID)
	if len(timeline) != 2 {
		t.Fatalf("expected 2 events, got %d", len(timeline))
	}
	last := timeline[len(timeline)-1]
	if *last.FromStage != "intake" || *last.ToStage != "assessment" || last.Actor != "Rahim" {
		t.Fatalf("unexpected event %+v", last)
	}
	if last.Status != domain.TrackingQueued || last.Message != domain.MessageFor("assessment") {
		t.Fatalf("unexpected event status/message %q %q", last.Status, last.Message)
	}
	if resp.Event.ID != last.ID {
		t.Fatal("response event is not the stored event")
	}

	got, err := svc.GetByID(context.Background(), sr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != "assessment" || got.Progress.Index != 1 {
		t.Fatalf("read back stage %q progress %+v", got.Stage, got.Progress)
	}
	events, _ := svc.Timeline(context.Background(), sr.ID)
	if events[len(events)-1].ID != last.ID {
		t.Fatal("new event is not the most recent timeline entry")
	}
	if names := bus.names(); names[len(names)-1] != "service_request.stage_changed" {
		t.Fatalf("published %v", names)
	}
}

func TestTransitionSkipToPickedUpOpensJobTicketOnce(t *testing.T) {
	svc, repo, bus := newTestService("forward")
	sr := createRequest(t, svc, "repair", "pickup")

	resp, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "picked_up"})
	if err != nil {
		t.Fatalf("intake -> picked_up should be allowed: %v", err)
	}
	if resp.JobTicket == nil || resp.JobTicket.ID != "JOB-2026-0001" {
		t.Fatalf("expected job ticket, got %+v", resp.JobTicket)
	}
	if resp.ServiceRequest.Status != domain.RequestStatusConverted || *resp.ServiceRequest.ConvertedJobID != "JOB-2026-0001" {
		t.Fatalf("request not linked: %+v", resp.ServiceRequest)
	}
	if !strings.Contains(resp.Event.Message, "Job ticket JOB-2026-0001 has been created.") {
		t.Fatalf("message %q", resp.Event.Message)
	}
	if resp.Event.Actor != "Admin" {
		t.Fatalf("actor %q", resp.Event.Actor)
	}
	if len(repo.timeline(sr.ID)) != 2 {
		t.Fatal("job creation must not add a second event")
	}

	if _, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "picked_up"}); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if len(repo.jobs) != 1 {
		t.Fatalf("expected one job ticket, got %d", len(repo.jobs))
	}

	jobEvents := 0
	for _, name := range bus.names() {
		if name == "job_ticket.created" {
			jobEvents++
		}
	}
	if jobEvents != 1 {
		t.Fatalf("expected one job_ticket.created, got %d", jobEvents)
	}
}

func TestTransitionBackwardIsConflictUnderForwardPolicy(t *testing.T) {
	svc, repo, _ := newTestService("forward")
	sr := createRequest(t, svc, "quote", "service_center")
	if _, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "in_repair"}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	writes := repo.writeCount()

	_, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "assessment"})
	if !errors.Is(err, domain.ErrBackwardTransition) || !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected backward conflict, got %v", err)
	}
	if repo.writeCount() != writes {
		t.Fatal("rejected transition wrote to the store")
	}
}

func TestTransitionBackwardAllowedUnderMembershipPolicy(t *testing.T) {
	svc, _, _ := newTestService("membership")
	sr := createRequest(t, svc, "quote", "service_center")
	if _, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "in_repair"}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if _, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "assessment"}); err != nil {
		t.Fatalf("membership policy should allow backwards: %v", err)
	}
}

func TestTransitionUnknownRequest(t *testing.T) {
	svc, _, _ := newTestService("forward")
	_, err := svc.TransitionStage(context.Background(), uuid.New(), Actor{}, transport.TransitionStageRequest{Stage: "assessment"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransitionPersistenceFailure(t *testing.T) {
	svc, repo, bus := newTestService("forward")
	sr := createRequest(t, svc, "repair", "pickup")
	repo.applyErr = errConnReset
	published := len(bus.names())

	_, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "assessment"})
	if !apperr.Is(err, apperr.KindInternal) || !errors.Is(err, errConnReset) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if len(bus.names()) != published {
		t.Fatal("failed transition published a notification")
	}
}

func TestTransitionActorName(t *testing.T) {
	svc, _, _ := newTestService("forward")
	sr := createRequest(t, svc, "repair", "service_center")

	resp, err := svc.TransitionStage(context.Background(), sr.ID, Actor{Name: "Rahim"}, transport.TransitionStageRequest{Stage: "assessment", ActorName: "Front Desk"})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if resp.Event.Actor != "Front Desk" {
		t.Fatalf("explicit actor name ignored: %q", resp.Event.Actor)
	}

	resp, err = svc.TransitionStage(context.Background(), sr.ID, Actor{Name: "Rahim"}, transport.TransitionStageRequest{Stage: "authorized"})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if resp.Event.Actor != "Rahim" {
		t.Fatalf("identity name ignored: %q", resp.Event.Actor)
	}
}

func TestCoercedFlowStillTransitions(t *testing.T) {
	svc, _, _ := newTestService("forward")
	// No intent or mode: repair + service_center.
	sr := createRequest(t, svc, "", "")
	if sr.RequestIntent != domain.IntentRepair || sr.ServiceMode != domain.ModeServiceCenter {
		t.Fatalf("defaults %s+%s", sr.RequestIntent, sr.ServiceMode)
	}

	if _, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "pickup_scheduled"}); !errors.Is(err, domain.ErrInvalidStageForFlow) {
		t.Fatalf("pickup stage should be invalid for the default flow, got %v", err)
	}
	resp, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "device_received"})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if resp.JobTicket == nil {
		t.Fatal("device_received should open a job ticket")
	}
}

func TestUpdateTrackingStatus(t *testing.T) {
	svc, repo, bus := newTestService("forward")
	sr := createRequest(t, svc, "repair", "pickup")

	if _, err := svc.UpdateTrackingStatus(context.Background(), sr.ID, Actor{}, transport.UpdateTrackingStatusRequest{TrackingStatus: "Teleported"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	resp, err := svc.UpdateTrackingStatus(context.Background(), sr.ID, Actor{Name: "Rahim"}, transport.UpdateTrackingStatusRequest{TrackingStatus: domain.TrackingRepairing})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.ServiceRequest.TrackingStatus != domain.TrackingRepairing || resp.ServiceRequest.Stage != "intake" {
		t.Fatalf("unexpected request %+v", resp.ServiceRequest)
	}
	if resp.Event.Message != "Repair work is in progress." || resp.Event.Actor != "Rahim" {
		t.Fatalf("unexpected event %+v", resp.Event)
	}
	if len(repo.timeline(sr.ID)) != 2 {
		t.Fatal("expected one new event")
	}
	if names := bus.names(); names[len(names)-1] != "service_request.updated" {
		t.Fatalf("published %v", names)
	}
}

func TestUpdateExpectedDates(t *testing.T) {
	svc, _, _ := newTestService("forward")
	sr := createRequest(t, svc, "repair", "pickup")
	ready := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

	resp, err := svc.UpdateExpectedDates(context.Background(), sr.ID, transport.UpdateExpectedDatesRequest{ExpectedReadyDate: &ready})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.ExpectedReadyDate == nil || !resp.ExpectedReadyDate.Equal(ready) || resp.ExpectedPickupDate != nil {
		t.Fatalf("unexpected dates %+v", resp)
	}
}

func TestTrackByTicketNumber(t *testing.T) {
	svc, _, _ := newTestService("forward")
	sr := createRequest(t, svc, "quote", "pickup")

	resp, err := svc.Track(context.Background(), " "+strings.ToLower(sr.TicketNumber)+" ")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if resp.TicketNumber != sr.TicketNumber || len(resp.Timeline) != 1 {
		t.Fatalf("unexpected tracker %+v", resp)
	}
	if len(resp.Steps) != domain.FlowFor("quote", "pickup").Len()-1 {
		t.Fatalf("unexpected steps %d", len(resp.Steps))
	}

	if _, err := svc.Track(context.Background(), "SRV-19990101-0001"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetForCustomerHidesOtherCustomers(t *testing.T) {
	svc, _, _ := newTestService("forward")
	owner := uuid.New()
	sr, err := svc.Create(context.Background(), &owner, transport.CreateServiceRequestRequest{
		Brand: "LG", PrimaryIssue: "Sound Issue", CustomerName: "Mita", Phone: "01812345678",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetForCustomer(context.Background(), owner, sr.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := svc.GetForCustomer(context.Background(), uuid.New(), sr.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for other customer, got %v", err)
	}

	list, err := svc.ListForCustomer(context.Background(), owner, transport.ListServiceRequestsQuery{})
	if err != nil || list.Total != 1 {
		t.Fatalf("list: %+v %v", list, err)
	}
}

func TestNextStagesFollowsPolicy(t *testing.T) {
	svc, _, _ := newTestService("forward")
	sr := createRequest(t, svc, "repair", "pickup")

	resp, err := svc.NextStages(context.Background(), sr.ID)
	if err != nil {
		t.Fatalf("next stages: %v", err)
	}
	if len(resp.Stages) != domain.FlowFor("repair", "pickup").Len()-1 || resp.Stages[0].Stage != domain.StageAssessment {
		t.Fatalf("unexpected stages %+v", resp.Stages)
	}
	if resp.Stages[0].Label != "Assessment" {
		t.Fatalf("label %q", resp.Stages[0].Label)
	}
}

func TestStageFlowsListsAllFour(t *testing.T) {
	svc, _, _ := newTestService("membership")
	resp := svc.StageFlows()
	if len(resp.Flows) != 4 || resp.Policy != "membership" || len(resp.TrackingStatuses) != 12 {
		t.Fatalf("unexpected catalogue %+v", resp)
	}
}

func TestListFiltersByStage(t *testing.T) {
	svc, _, _ := newTestService("forward")
	moved := createRequest(t, svc, "repair", "pickup")
	createRequest(t, svc, "repair", "pickup")

	if _, err := svc.TransitionStage(context.Background(), moved.ID, Actor{Name: "Rahim"}, transport.TransitionStageRequest{Stage: "assessment"}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	list, err := svc.List(context.Background(), transport.ListServiceRequestsQuery{Stage: "assessment"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 || list.Items[0].ID != moved.ID {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestTimelineOldestFirst(t *testing.T) {
	svc, _, _ := newTestService("forward")
	sr := createRequest(t, svc, "repair", "service_center")

	if _, err := svc.TransitionStage(context.Background(), sr.ID, Actor{}, transport.TransitionStageRequest{Stage: "assessment"}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	timeline, err := svc.Timeline(context.Background(), sr.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(timeline) != 2 || timeline[0].Actor != "System" || timeline[1].Actor != "Admin" {
		t.Fatalf("unexpected timeline %+v", timeline)
	}

	if _, err := svc.Timeline(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
