package handler

import (
	"context"
	"net/http"

	"promise_backend/internal/servicerequests/service"
	"promise_backend/internal/servicerequests/transport"
	"promise_backend/platform/httpkit"
	"promise_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid service request id"
)

// Service is the subset of the service request use cases the HTTP layer calls.
type Service interface {
	Create(ctx context.Context, customerID *uuid.UUID, req transport.CreateServiceRequestRequest) (*transport.ServiceRequestResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*transport.ServiceRequestResponse, error)
	Track(ctx context.Context, ticketNumber string) (*transport.TrackingResponse, error)
	GetForCustomer(ctx context.Context, customerID, id uuid.UUID) (*transport.TrackingResponse, error)
	List(ctx context.Context, q transport.ListServiceRequestsQuery) (*transport.ListResponse, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, q transport.ListServiceRequestsQuery) (*transport.ListResponse, error)
	Timeline(ctx context.Context, id uuid.UUID) ([]transport.TimelineEventResponse, error)
	NextStages(ctx context.Context, id uuid.UUID) (*transport.NextStagesResponse, error)
	StageFlows() transport.StageFlowsResponse
	TransitionStage(ctx context.Context, id uuid.UUID, actor service.Actor, req transport.TransitionStageRequest) (*transport.TransitionResponse, error)
	UpdateTrackingStatus(ctx context.Context, id uuid.UUID, actor service.Actor, req transport.UpdateTrackingStatusRequest) (*transport.TrackingStatusResponse, error)
	UpdateExpectedDates(ctx context.Context, id uuid.UUID, req transport.UpdateExpectedDatesRequest) (*transport.ServiceRequestResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest) (*transport.QuoteUpdateResponse, error)
	AssignTechnician(ctx context.Context, id uuid.UUID, req transport.AssignTechnicianRequest) (*transport.JobTicketResponse, error)
	SetQuote(ctx context.Context, id uuid.UUID, actor service.Actor, req transport.SetQuoteRequest) (*transport.QuoteUpdateResponse, error)
	AcceptQuote(ctx context.Context, customerID, id uuid.UUID, req transport.AcceptQuoteRequest) (*transport.TrackingResponse, error)
	DeclineQuote(ctx context.Context, customerID, id uuid.UUID) (*transport.TrackingResponse, error)
}

// Handler handles HTTP requests for service requests
type Handler struct {
	svc Service
	val *validator.Validator
}

// New creates a new service requests handler
func New(svc Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the unauthenticated intake and tracking routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	rg.POST("/service-requests", limit, h.Create)
	rg.GET("/track/:ticketNumber", limit, h.Track)
	rg.GET("/stage-flows", h.StageFlows)
}

// RegisterCustomerRoutes mounts routes for signed-in customers.
func (h *Handler) RegisterCustomerRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListMine)
	rg.POST("", h.CreateMine)
	rg.GET("/:id", h.GetMine)
	rg.POST("/:id/quote/accept", h.AcceptQuote)
	rg.POST("/:id/quote/decline", h.DeclineQuote)
}

// RegisterAdminRoutes mounts the staff workflow routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/next-stages", h.NextStages)
	rg.GET("/:id/timeline", h.Timeline)
	rg.POST("/:id/transition-stage", h.TransitionStage)
	rg.PATCH("/:id/tracking-status", h.UpdateTrackingStatus)
	rg.PUT("/:id/expected-dates", h.UpdateExpectedDates)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.PATCH("/:id/technician", h.AssignTechnician)
	rg.PATCH("/:id/quote", h.SetQuote)
}

// Create handles POST /api/v1/service-requests
func (h *Handler) Create(c *gin.Context) {
	h.create(c, nil)
}

// CreateMine handles POST /api/v1/customer/service-requests and links the
// request to the caller.
func (h *Handler) CreateMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	customerID := identity.UserID()
	h.create(c, &customerID)
}

func (h *Handler) create(c *gin.Context, customerID *uuid.UUID) {
	var req transport.CreateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), customerID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// Track handles GET /api/v1/track/:ticketNumber
func (h *Handler) Track(c *gin.Context) {
	result, err := h.svc.Track(c.Request.Context(), c.Param("ticketNumber"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// StageFlows handles GET /api/v1/stage-flows
func (h *Handler) StageFlows(c *gin.Context) {
	httpkit.OK(c, h.svc.StageFlows())
}

// ListMine handles GET /api/v1/customer/service-requests
func (h *Handler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	q, ok := h.bindListQuery(c)
	if !ok {
		return
	}

	result, err := h.svc.ListForCustomer(c.Request.Context(), identity.UserID(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetMine handles GET /api/v1/customer/service-requests/:id
func (h *Handler) GetMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetForCustomer(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List handles GET /api/v1/admin/service-requests
func (h *Handler) List(c *gin.Context) {
	q, ok := h.bindListQuery(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID handles GET /api/v1/admin/service-requests/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// NextStages handles GET /api/v1/admin/service-requests/:id/next-stages
func (h *Handler) NextStages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.NextStages(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Timeline handles GET /api/v1/admin/service-requests/:id/timeline
func (h *Handler) Timeline(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Timeline(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// TransitionStage handles POST /api/v1/admin/service-requests/:id/transition-stage
func (h *Handler) TransitionStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.TransitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.TransitionStage(c.Request.Context(), id, actorFrom(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateTrackingStatus handles PATCH /api/v1/admin/service-requests/:id/tracking-status
func (h *Handler) UpdateTrackingStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateTrackingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdateTrackingStatus(c.Request.Context(), id, actorFrom(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateExpectedDates handles PUT /api/v1/admin/service-requests/:id/expected-dates
func (h *Handler) UpdateExpectedDates(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateExpectedDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.UpdateExpectedDates(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateStatus handles PATCH /api/v1/admin/service-requests/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AssignTechnician handles PATCH /api/v1/admin/service-requests/:id/technician
func (h *Handler) AssignTechnician(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AssignTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.AssignTechnician(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetQuote handles PATCH /api/v1/admin/service-requests/:id/quote
func (h *Handler) SetQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SetQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.SetQuote(c.Request.Context(), id, actorFrom(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AcceptQuote handles POST /api/v1/customer/service-requests/:id/quote/accept
func (h *Handler) AcceptQuote(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AcceptQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.AcceptQuote(c.Request.Context(), identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeclineQuote handles POST /api/v1/customer/service-requests/:id/quote/decline
func (h *Handler) DeclineQuote(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.DeclineQuote(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindListQuery(c *gin.Context) (transport.ListServiceRequestsQuery, bool) {
	var q transport.ListServiceRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return q, false
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return q, false
	}
	return q, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func actorFrom(c *gin.Context) service.Actor {
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		return service.Actor{}
	}
	return service.Actor{ID: identity.UserID(), Name: identity.Name()}
}
