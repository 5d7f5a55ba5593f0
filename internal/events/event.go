// Package events defines the service request domain events. The bus itself
// lives in platform/events and is aliased here so modules need one import.
package events

import (
	"time"

	"promise_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Service Request Domain Events
// =============================================================================

// ServiceRequestCreated is published after a customer submits a request.
type ServiceRequestCreated struct {
	BaseEvent
	ServiceRequestID uuid.UUID  `json:"serviceRequestId"`
	TicketNumber     string     `json:"ticketNumber"`
	CustomerID       *uuid.UUID `json:"customerId,omitempty"`
	CustomerName     string     `json:"customerName"`
	Brand            string     `json:"brand"`
	TrackingStatus   string     `json:"trackingStatus"`
}

func (e ServiceRequestCreated) EventName() string { return "service_request.created" }

// ServiceRequestStageChanged is published after a stage transition commits.
type ServiceRequestStageChanged struct {
	BaseEvent
	ServiceRequestID uuid.UUID  `json:"serviceRequestId"`
	TicketNumber     string     `json:"ticketNumber"`
	CustomerID       *uuid.UUID `json:"customerId,omitempty"`
	FromStage        string     `json:"fromStage"`
	ToStage          string     `json:"toStage"`
	TrackingStatus   string     `json:"trackingStatus"`
	Message          string     `json:"message"`
	Actor            string     `json:"actor"`
}

func (e ServiceRequestStageChanged) EventName() string { return "service_request.stage_changed" }

// ServiceRequestUpdated is published for tracking status, admin status and
// schedule edits. Customers are only told when Message is set.
type ServiceRequestUpdated struct {
	BaseEvent
	ServiceRequestID uuid.UUID  `json:"serviceRequestId"`
	TicketNumber     string     `json:"ticketNumber"`
	CustomerID       *uuid.UUID `json:"customerId,omitempty"`
	Status           string     `json:"status,omitempty"`
	TrackingStatus   string     `json:"trackingStatus"`
	Message          string     `json:"message,omitempty"`
	ExpectedPickup   *time.Time `json:"expectedPickupDate,omitempty"`
	ExpectedReturn   *time.Time `json:"expectedReturnDate,omitempty"`
	ExpectedReady    *time.Time `json:"expectedReadyDate,omitempty"`
}

func (e ServiceRequestUpdated) EventName() string { return "service_request.updated" }

// JobTicketCreated is published when receiving a device opens a job ticket.
type JobTicketCreated struct {
	BaseEvent
	JobTicketID      string    `json:"jobTicketId"`
	ServiceRequestID uuid.UUID `json:"serviceRequestId"`
	TicketNumber     string    `json:"ticketNumber"`
	Customer         string    `json:"customer"`
	Device           string    `json:"device"`
}

func (e JobTicketCreated) EventName() string { return "job_ticket.created" }

// QuoteSent is published when staff price a quote request.
type QuoteSent struct {
	BaseEvent
	ServiceRequestID uuid.UUID  `json:"serviceRequestId"`
	TicketNumber     string     `json:"ticketNumber"`
	CustomerID       *uuid.UUID `json:"customerId,omitempty"`
	Amount           float64    `json:"amount"`
	ExpiresAt        time.Time  `json:"expiresAt"`
}

func (e QuoteSent) EventName() string { return "service_request.quote_sent" }

// QuoteAnswered is published when a customer accepts or declines a quote.
type QuoteAnswered struct {
	BaseEvent
	ServiceRequestID  uuid.UUID  `json:"serviceRequestId"`
	TicketNumber      string     `json:"ticketNumber"`
	CustomerID        *uuid.UUID `json:"customerId,omitempty"`
	CustomerName      string     `json:"customerName"`
	Accepted          bool       `json:"accepted"`
	ServicePreference string     `json:"servicePreference,omitempty"`
	PickupTier        string     `json:"pickupTier,omitempty"`
	TotalAmount       float64    `json:"totalAmount,omitempty"`
	TrackingStatus    string     `json:"trackingStatus"`
}

func (e QuoteAnswered) EventName() string { return "service_request.quote_answered" }
