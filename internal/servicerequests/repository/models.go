package repository

import (
	"time"

	"promise_backend/internal/servicerequests/domain"

	"github.com/google/uuid"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// ServiceRequest is the database model for a customer repair request
type ServiceRequest struct {
	ID                 uuid.UUID  `db:"id"`
	TicketNumber       string     `db:"ticket_number"`
	CustomerID         *uuid.UUID `db:"customer_id"`
	Brand              string     `db:"brand"`
	ScreenSize         *string    `db:"screen_size"`
	ModelNumber        *string    `db:"model_number"`
	PrimaryIssue       string     `db:"primary_issue"`
	Description        *string    `db:"description"`
	CustomerName       string     `db:"customer_name"`
	Phone              string     `db:"phone"`
	Address            *string    `db:"address"`
	ServicePreference  *string    `db:"service_preference"`
	Status             string     `db:"status"`
	TrackingStatus     string     `db:"tracking_status"`
	RequestIntent      *string    `db:"request_intent"`
	ServiceMode        *string    `db:"service_mode"`
	Stage              string     `db:"stage"`
	ConvertedJobID     *string    `db:"converted_job_id"`
	ExpectedPickupDate *time.Time `db:"expected_pickup_date"`
	ExpectedReturnDate *time.Time `db:"expected_return_date"`
	ExpectedReadyDate  *time.Time `db:"expected_ready_date"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`

	QuoteStatus        *string    `db:"quote_status"`
	QuoteAmount        *float64   `db:"quote_amount"`
	QuoteNotes         *string    `db:"quote_notes"`
	QuotedAt           *time.Time `db:"quoted_at"`
	QuoteExpiresAt     *time.Time `db:"quote_expires_at"`
	AcceptedAt         *time.Time `db:"accepted_at"`
	PickupTier         *string    `db:"pickup_tier"`
	PickupCost         *float64   `db:"pickup_cost"`
	TotalAmount        *float64   `db:"total_amount"`
	ScheduledVisitDate *time.Time `db:"scheduled_visit_date"`
}

// Snapshot returns the fields the stage engine plans against.
func (r ServiceRequest) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Intent:         deref(r.RequestIntent),
		Mode:           deref(r.ServiceMode),
		Stage:          r.Stage,
		ConvertedJobID: deref(r.ConvertedJobID),
	}
}

// QuoteState returns the fields quote operations are planned against.
func (r ServiceRequest) QuoteState() domain.QuoteState {
	st := domain.QuoteState{
		Snapshot:       r.Snapshot(),
		QuoteStatus:    deref(r.QuoteStatus),
		QuoteExpiresAt: r.QuoteExpiresAt,
	}
	if r.QuoteAmount != nil {
		st.QuoteAmount = *r.QuoteAmount
	}
	return st
}

// RequestState returns the fields a tracking status check needs.
func (r ServiceRequest) RequestState() domain.RequestState {
	return domain.RequestState{Status: r.Status, ConvertedJobID: deref(r.ConvertedJobID)}
}

// TimelineEvent is an append-only history row for a service request
type TimelineEvent struct {
	ID               uuid.UUID  `db:"id"`
	ServiceRequestID uuid.UUID  `db:"service_request_id"`
	Status           string     `db:"status"`
	Message          string     `db:"message"`
	Actor            string     `db:"actor"`
	ActorID          *uuid.UUID `db:"actor_id"`
	FromStage        *string    `db:"from_stage"`
	ToStage          *string    `db:"to_stage"`
	OccurredAt       time.Time  `db:"occurred_at"`
}

// JobTicket is the workshop ticket opened when a device is received
type JobTicket struct {
	ID               string     `db:"id"`
	ServiceRequestID *uuid.UUID `db:"service_request_id"`
	Customer         string     `db:"customer"`
	CustomerPhone    *string    `db:"customer_phone"`
	CustomerAddress  *string    `db:"customer_address"`
	Device           string     `db:"device"`
	TVSerialNumber   *string    `db:"tv_serial_number"`
	Issue            string     `db:"issue"`
	Status           string     `db:"status"`
	Priority         string     `db:"priority"`
	Technician       string     `db:"technician"`
	ScreenSize       *string    `db:"screen_size"`
	Notes            *string    `db:"notes"`
	CreatedAt        time.Time  `db:"created_at"`
}

// Actor attributes a timeline event to a person or to the system.
type Actor struct {
	Name string
	ID   *uuid.UUID
}

// SystemActor is used for events no staff member caused.
var SystemActor = Actor{Name: "System"}

// ExpectedDates are the customer-visible schedule estimates.
type ExpectedDates struct {
	Pickup *time.Time
	Return *time.Time
	Ready  *time.Time
}

// TransitionResult is what a committed stage transition produced.
type TransitionResult struct {
	Request   ServiceRequest
	Event     TimelineEvent
	JobTicket *JobTicket
	Plan      domain.Plan
}

// DecideFunc plans a transition against the locked row. Returning an error
// aborts the transaction before anything is written.
type DecideFunc func(current ServiceRequest) (domain.Plan, error)

// TrackingGuard vets a tracking status change against the locked row and
// its job ticket, nil when none is linked.
type TrackingGuard func(current ServiceRequest, job *JobTicket) error

// QuoteChange is a set of quote field writes. Nil fields keep their stored
// value. Event, when set, is appended to the timeline in the same
// transaction; a non-empty ToStage on it moves the stage too.
type QuoteChange struct {
	QuoteStatus        *string
	QuoteAmount        *float64
	QuoteNotes         *string
	SetNotes           bool
	QuotedAt           *time.Time
	QuoteExpiresAt     *time.Time
	AcceptedAt         *time.Time
	PickupTier         *string
	PickupCost         *float64
	TotalAmount        *float64
	ScheduledVisitDate *time.Time
	ServicePreference  *string
	Address            *string
	TrackingStatus     *string
	Status             *string
	Event              *TimelineEvent
}

// QuoteDecideFunc plans a quote change against the locked row. Returning an
// error aborts the transaction before anything is written.
type QuoteDecideFunc func(current ServiceRequest) (QuoteChange, error)

// ListParams contains parameters for listing service requests
type ListParams struct {
	CustomerID     *uuid.UUID
	Stage          *string
	TrackingStatus *string
	Search         string
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}

// ListResult contains the paginated result of listing service requests
type ListResult struct {
	Items      []ServiceRequest
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
