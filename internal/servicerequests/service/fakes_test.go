package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"promise_backend/internal/events"
	"promise_backend/internal/servicerequests/repository"
	"promise_backend/platform/apperr"
	"promise_backend/platform/logger"

	"github.com/google/uuid"
)

type testConfig struct {
	policy string
}

func (testConfig) GetPhoneDefaultRegion() string { return "BD" }
func (c testConfig) GetTransitionPolicy() string { return c.policy }

// memRepo mirrors the repository's transactional contract in memory: a
// failed decide leaves no trace and a successful one writes exactly once.
type memRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]repository.ServiceRequest
	events   map[uuid.UUID][]repository.TimelineEvent
	jobs     []repository.JobTicket
	writes   int
	seq      int
	applyErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		requests: make(map[uuid.UUID]repository.ServiceRequest),
		events:   make(map[uuid.UUID][]repository.TimelineEvent),
	}
}

func (m *memRepo) appendEvent(ev repository.TimelineEvent) repository.TimelineEvent {
	ev.ID = uuid.New()
	ev.OccurredAt = time.Now()
	m.events[ev.ServiceRequestID] = append(m.events[ev.ServiceRequestID], ev)
	return ev
}

func (m *memRepo) Create(_ context.Context, req *repository.ServiceRequest, initial repository.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	req.TicketNumber = fmt.Sprintf("SRV-20260101-%04d", m.seq)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	m.requests[req.ID] = *req
	initial.ServiceRequestID = req.ID
	m.appendEvent(initial)
	m.writes++
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("service request not found")
	}
	return &sr, nil
}

func (m *memRepo) GetByTicketNumber(_ context.Context, ticket string) (*repository.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sr := range m.requests {
		if sr.TicketNumber == ticket {
			return &sr, nil
		}
	}
	return nil, apperr.NotFound("service request not found")
}

func (m *memRepo) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]repository.ServiceRequest, 0)
	for _, sr := range m.requests {
		if params.CustomerID != nil && (sr.CustomerID == nil || *sr.CustomerID != *params.CustomerID) {
			continue
		}
		if params.Stage != nil && sr.Stage != *params.Stage {
			continue
		}
		items = append(items, sr)
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

func (m *memRepo) ListTimeline(_ context.Context, id uuid.UUID) ([]repository.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.TimelineEvent, len(m.events[id]))
	copy(out, m.events[id])
	return out, nil
}

func (m *memRepo) ApplyTransition(_ context.Context, id uuid.UUID, actor repository.Actor, decide repository.DecideFunc) (*repository.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("service request not found")
	}

	plan, err := decide(sr)
	if err != nil {
		return nil, err
	}

	message := plan.Message
	var job *repository.JobTicket
	if plan.CreateJobTicket {
		job = &repository.JobTicket{
			ID:         fmt.Sprintf("JOB-2026-%04d", len(m.jobs)+1),
			Customer:   sr.CustomerName,
			Device:     sr.Brand + " TV",
			Issue:      sr.PrimaryIssue,
			Status:     "In Progress",
			Technician: "Unassigned",
		}
		m.jobs = append(m.jobs, *job)
		sr.ConvertedJobID = &job.ID
		sr.Status = "Converted"
		message += " Job ticket " + job.ID + " has been created."
	}

	sr.Stage = string(plan.To)
	sr.UpdatedAt = time.Now()
	m.requests[id] = sr

	from, to := string(plan.From), string(plan.To)
	ev := m.appendEvent(repository.TimelineEvent{
		ServiceRequestID: id,
		Status:           plan.TrackingStatus,
		Message:          message,
		Actor:            actor.Name,
		ActorID:          actor.ID,
		FromStage:        &from,
		ToStage:          &to,
	})
	m.writes++

	return &repository.TransitionResult{Request: sr, Event: ev, JobTicket: job, Plan: plan}, nil
}

func (m *memRepo) jobFor(sr repository.ServiceRequest) *repository.JobTicket {
	if sr.ConvertedJobID == nil {
		return nil
	}
	for i := range m.jobs {
		if m.jobs[i].ID == *sr.ConvertedJobID {
			return &m.jobs[i]
		}
	}
	return nil
}

func (m *memRepo) UpdateTrackingStatus(_ context.Context, id uuid.UUID, status string, event repository.TimelineEvent, guard repository.TrackingGuard) (*repository.ServiceRequest, *repository.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, nil, apperr.NotFound("service request not found")
	}
	if guard != nil {
		var job *repository.JobTicket
		if j := m.jobFor(sr); j != nil {
			copied := *j
			job = &copied
		}
		if err := guard(sr, job); err != nil {
			return nil, nil, err
		}
	}
	sr.TrackingStatus = status
	m.requests[id] = sr
	event.ServiceRequestID = id
	ev := m.appendEvent(event)
	m.writes++
	return &sr, &ev, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*repository.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("service request not found")
	}
	sr.Status = status
	m.requests[id] = sr
	m.writes++
	return &sr, nil
}

func (m *memRepo) AssignTechnician(_ context.Context, id uuid.UUID, technician string) (*repository.JobTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("service request not found")
	}
	job := m.jobFor(sr)
	if job == nil {
		return nil, apperr.Conflict("service request has no job ticket")
	}
	job.Technician = technician
	m.writes++
	copied := *job
	return &copied, nil
}

func (m *memRepo) UpdateQuote(_ context.Context, id uuid.UUID, decide repository.QuoteDecideFunc) (*repository.ServiceRequest, *repository.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, nil, apperr.NotFound("service request not found")
	}

	c, err := decide(sr)
	if err != nil {
		return nil, nil, err
	}

	setStr := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	setFloat := func(dst **float64, v *float64) {
		if v != nil {
			*dst = v
		}
	}
	setTime := func(dst **time.Time, v *time.Time) {
		if v != nil {
			*dst = v
		}
	}
	setStr(&sr.QuoteStatus, c.QuoteStatus)
	setFloat(&sr.QuoteAmount, c.QuoteAmount)
	if c.SetNotes {
		sr.QuoteNotes = c.QuoteNotes
	}
	setTime(&sr.QuotedAt, c.QuotedAt)
	setTime(&sr.QuoteExpiresAt, c.QuoteExpiresAt)
	setTime(&sr.AcceptedAt, c.AcceptedAt)
	setStr(&sr.PickupTier, c.PickupTier)
	setFloat(&sr.PickupCost, c.PickupCost)
	setFloat(&sr.TotalAmount, c.TotalAmount)
	setTime(&sr.ScheduledVisitDate, c.ScheduledVisitDate)
	setStr(&sr.ServicePreference, c.ServicePreference)
	setStr(&sr.Address, c.Address)
	if c.TrackingStatus != nil {
		sr.TrackingStatus = *c.TrackingStatus
	}
	if c.Status != nil {
		sr.Status = *c.Status
	}

	var stored *repository.TimelineEvent
	if c.Event != nil {
		if c.Event.ToStage != nil && *c.Event.ToStage != "" {
			sr.Stage = *c.Event.ToStage
		}
		ev := *c.Event
		ev.ServiceRequestID = id
		saved := m.appendEvent(ev)
		stored = &saved
	}

	sr.UpdatedAt = time.Now()
	m.requests[id] = sr
	m.writes++
	return &sr, stored, nil
}

func (m *memRepo) UpdateExpectedDates(_ context.Context, id uuid.UUID, dates repository.ExpectedDates) (*repository.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("service request not found")
	}
	sr.ExpectedPickupDate, sr.ExpectedReturnDate, sr.ExpectedReadyDate = dates.Pickup, dates.Return, dates.Ready
	m.requests[id] = sr
	m.writes++
	return &sr, nil
}

func (m *memRepo) timeline(id uuid.UUID) []repository.TimelineEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id]
}

func (m *memRepo) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, evt events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, evt)
}

func (b *recordingBus) PublishSync(ctx context.Context, evt events.Event) error {
	b.Publish(ctx, evt)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.published))
	for i, e := range b.published {
		out[i] = e.EventName()
	}
	return out
}

func newTestService(policy string) (*Service, *memRepo, *recordingBus) {
	repo := newMemRepo()
	bus := &recordingBus{}
	svc := New(repo, testConfig{policy: policy}, logger.Nop())
	svc.SetEventBus(bus)
	return svc, repo, bus
}

var errConnReset = errors.New("connection reset by peer")
