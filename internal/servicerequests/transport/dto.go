package transport

import (
	"time"

	"promise_backend/internal/servicerequests/domain"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateServiceRequestRequest is the public intake form
type CreateServiceRequestRequest struct {
	Brand             string `json:"brand" validate:"required,max=100"`
	ScreenSize        string `json:"screenSize" validate:"max=50"`
	ModelNumber       string `json:"modelNumber" validate:"max=100"`
	PrimaryIssue      string `json:"primaryIssue" validate:"required,max=200"`
	Description       string `json:"description" validate:"max=2000"`
	CustomerName      string `json:"customerName" validate:"required,max=200"`
	Phone             string `json:"phone" validate:"required,phone_number"`
	Address           string `json:"address" validate:"max=500"`
	ServicePreference string `json:"servicePreference" validate:"omitempty,oneof=home_pickup service_center"`
	RequestIntent     string `json:"requestIntent" validate:"omitempty,oneof=quote repair"`
	ServiceMode       string `json:"serviceMode" validate:"omitempty,oneof=pickup service_center"`
}

// TransitionStageRequest moves a request to another stage of its flow.
// Stage is checked against the flow by the service, not here.
type TransitionStageRequest struct {
	Stage     string `json:"stage" validate:"required,max=50"`
	ActorName string `json:"actorName" validate:"max=100"`
}

// UpdateTrackingStatusRequest sets the legacy tracking status
type UpdateTrackingStatusRequest struct {
	TrackingStatus string `json:"trackingStatus" validate:"required,tracking_status"`
}

// UpdateExpectedDatesRequest replaces the schedule estimates. Omitted
// dates are cleared.
type UpdateExpectedDatesRequest struct {
	ExpectedPickupDate *time.Time `json:"expectedPickupDate"`
	ExpectedReturnDate *time.Time `json:"expectedReturnDate"`
	ExpectedReadyDate  *time.Time `json:"expectedReadyDate"`
}

// UpdateStatusRequest sets the internal admin status. Converted is only
// reached by opening a job ticket.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Reviewed Closed"`
}

// AssignTechnicianRequest names the technician on the request's job ticket
type AssignTechnicianRequest struct {
	Technician string `json:"technician" validate:"required,max=100"`
}

// SetQuoteRequest prices a quote request
type SetQuoteRequest struct {
	QuoteAmount float64 `json:"quoteAmount" validate:"required,gt=0"`
	QuoteNotes  string  `json:"quoteNotes" validate:"max=2000"`
}

// AcceptQuoteRequest is the customer's acceptance of a priced quote.
// PickupTier is required for home pickup; the service checks that.
type AcceptQuoteRequest struct {
	ServicePreference  string     `json:"servicePreference" validate:"required,oneof=home_pickup service_center"`
	PickupTier         string     `json:"pickupTier" validate:"omitempty,oneof=Regular Priority Emergency"`
	Address            string     `json:"address" validate:"max=500"`
	ScheduledVisitDate *time.Time `json:"scheduledVisitDate"`
}

// ListServiceRequestsQuery are the admin list filters
type ListServiceRequestsQuery struct {
	Stage          string `form:"stage" validate:"omitempty,max=50"`
	TrackingStatus string `form:"trackingStatus" validate:"omitempty,tracking_status"`
	Search         string `form:"search" validate:"max=100"`
	SortBy         string `form:"sortBy" validate:"omitempty,oneof=ticketNumber stage createdAt updatedAt"`
	SortOrder      string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page           int    `form:"page" validate:"omitempty,min=1"`
	PageSize       int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// StageOption is a stage with its display label
type StageOption struct {
	Stage domain.Stage `json:"stage"`
	Label string       `json:"label"`
}

// ServiceRequestResponse is the admin view of a request
type ServiceRequestResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TicketNumber       string          `json:"ticketNumber"`
	CustomerID         *uuid.UUID      `json:"customerId,omitempty"`
	Brand              string          `json:"brand"`
	ScreenSize         *string         `json:"screenSize,omitempty"`
	ModelNumber        *string         `json:"modelNumber,omitempty"`
	PrimaryIssue       string          `json:"primaryIssue"`
	Description        *string         `json:"description,omitempty"`
	CustomerName       string          `json:"customerName"`
	Phone              string          `json:"phone"`
	Address            *string         `json:"address,omitempty"`
	ServicePreference  *string         `json:"servicePreference,omitempty"`
	Status             string          `json:"status"`
	TrackingStatus     string          `json:"trackingStatus"`
	RequestIntent      domain.Intent   `json:"requestIntent"`
	ServiceMode        domain.Mode     `json:"serviceMode"`
	Stage              string          `json:"stage"`
	StageLabel         string          `json:"stageLabel"`
	Flow               []StageOption   `json:"flow"`
	Progress           domain.Progress `json:"progress"`
	ConvertedJobID     *string         `json:"convertedJobId,omitempty"`
	ExpectedPickupDate *time.Time      `json:"expectedPickupDate,omitempty"`
	ExpectedReturnDate *time.Time      `json:"expectedReturnDate,omitempty"`
	ExpectedReadyDate  *time.Time      `json:"expectedReadyDate,omitempty"`
	Quote              *QuoteResponse  `json:"quote,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// QuoteResponse is the pricing of a quote request
type QuoteResponse struct {
	Status             string     `json:"status"`
	Amount             *float64   `json:"amount,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	QuotedAt           *time.Time `json:"quotedAt,omitempty"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	AcceptedAt         *time.Time `json:"acceptedAt,omitempty"`
	PickupTier         *string    `json:"pickupTier,omitempty"`
	PickupCost         *float64   `json:"pickupCost,omitempty"`
	TotalAmount        *float64   `json:"totalAmount,omitempty"`
	ScheduledVisitDate *time.Time `json:"scheduledVisitDate,omitempty"`
}

// TimelineEventResponse is one history entry
type TimelineEventResponse struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Actor      string    `json:"actor"`
	FromStage  *string   `json:"fromStage,omitempty"`
	ToStage    *string   `json:"toStage,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// JobTicketResponse is the workshop ticket opened on device receipt
type JobTicketResponse struct {
	ID         string    `json:"id"`
	Customer   string    `json:"customer"`
	Device     string    `json:"device"`
	Issue      string    `json:"issue"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority"`
	Technician string    `json:"technician"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TransitionResponse is returned by a successful stage transition
type TransitionResponse struct {
	ServiceRequest ServiceRequestResponse `json:"serviceRequest"`
	Event          TimelineEventResponse  `json:"event"`
	JobTicket      *JobTicketResponse     `json:"jobTicket,omitempty"`
}

// TrackingStatusResponse is returned by a tracking status update
type TrackingStatusResponse struct {
	ServiceRequest ServiceRequestResponse `json:"serviceRequest"`
	Event          TimelineEventResponse  `json:"event"`
}

// QuoteUpdateResponse is returned by quote and status changes. Event is
// omitted when nothing was added to the timeline.
type QuoteUpdateResponse struct {
	ServiceRequest ServiceRequestResponse `json:"serviceRequest"`
	Event          *TimelineEventResponse `json:"event,omitempty"`
}

// TrackingResponse is the customer-facing tracker. It leaves out contact
// details because it is reachable by ticket number alone.
type TrackingResponse struct {
	TicketNumber       string                  `json:"ticketNumber"`
	Brand              string                  `json:"brand"`
	ScreenSize         *string                 `json:"screenSize,omitempty"`
	PrimaryIssue       string                  `json:"primaryIssue"`
	TrackingStatus     string                  `json:"trackingStatus"`
	Stage              string                  `json:"stage"`
	StageLabel         string                  `json:"stageLabel"`
	RequestIntent      domain.Intent           `json:"requestIntent"`
	ServiceMode        domain.Mode             `json:"serviceMode"`
	Progress           domain.Progress         `json:"progress"`
	Steps              []domain.CustomerStep   `json:"steps"`
	ExpectedPickupDate *time.Time              `json:"expectedPickupDate,omitempty"`
	ExpectedReturnDate *time.Time              `json:"expectedReturnDate,omitempty"`
	ExpectedReadyDate  *time.Time              `json:"expectedReadyDate,omitempty"`
	Quote              *QuoteResponse          `json:"quote,omitempty"`
	Timeline           []TimelineEventResponse `json:"timeline"`
	CreatedAt          time.Time               `json:"createdAt"`
}

// NextStagesResponse lists where a request may go from its current stage
type NextStagesResponse struct {
	CurrentStage string        `json:"currentStage"`
	Policy       string        `json:"policy"`
	Stages       []StageOption `json:"stages"`
}

// StageFlowResponse describes one (intent, mode) flow
type StageFlowResponse struct {
	Name          string        `json:"name"`
	RequestIntent domain.Intent `json:"requestIntent"`
	ServiceMode   domain.Mode   `json:"serviceMode"`
	Stages        []StageOption `json:"stages"`
}

// StageFlowsResponse is the static workflow catalogue for clients
type StageFlowsResponse struct {
	Flows            []StageFlowResponse `json:"flows"`
	TrackingStatuses []string            `json:"trackingStatuses"`
	Policy           string              `json:"policy"`
}

// ListResponse is a page of service requests
type ListResponse struct {
	Items      []ServiceRequestResponse `json:"items"`
	Total      int                      `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
	TotalPages int                      `json:"totalPages"`
}
