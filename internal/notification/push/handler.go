package push

import (
	"context"
	"net/http"

	"promise_backend/platform/httpkit"
	"promise_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenRegistry is what the handler needs from the token repository
type TokenRegistry interface {
	Register(ctx context.Context, userID uuid.UUID, token, platform string) (DeviceToken, error)
	Unregister(ctx context.Context, userID uuid.UUID, token string) error
}

// RegisterTokenRequest registers a device for push
type RegisterTokenRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"omitempty,oneof=android ios web"`
}

// UnregisterTokenRequest removes a device
type UnregisterTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

// Handler exposes device token registration to customers
type Handler struct {
	tokens TokenRegistry
	val    *validator.Validator
}

// NewHandler creates the device token handler
func NewHandler(tokens TokenRegistry, val *validator.Validator) *Handler {
	return &Handler{tokens: tokens, val: val}
}

// RegisterRoutes mounts the device token routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Register)
	rg.DELETE("", h.Unregister)
}

// Register handles POST /api/v1/customer/device-tokens
func (h *Handler) Register(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}

	token, err := h.tokens.Register(c.Request.Context(), identity.UserID(), req.Token, req.Platform)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, token)
}

// Unregister handles DELETE /api/v1/customer/device-tokens
func (h *Handler) Unregister(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req UnregisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	if err := h.tokens.Unregister(c.Request.Context(), identity.UserID(), req.Token); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}
