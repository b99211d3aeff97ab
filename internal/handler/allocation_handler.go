package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/application"
	"github.com/picktoride/service-rental/internal/platform/auth"
	"github.com/picktoride/service-rental/internal/platform/domain"
	"github.com/picktoride/service-rental/internal/platform/middleware"
	"github.com/picktoride/service-rental/internal/platform/response"
)

// AllocationUseCases covers handover, return and extension handling.
type AllocationUseCases interface {
	HandOver(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.HandOverRequest) (*application.HandOverDTO, error)
	Return(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.ReturnRequest) (*application.ReturnDTO, error)
	RequestExtension(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.ExtensionRequestInput) (*application.ExtensionDTO, error)
	ReviewExtension(ctx context.Context, extensionID uuid.UUID, actor application.Actor, req application.ReviewExtensionRequest) (*application.ExtensionDTO, error)
	ListPendingExtensions(ctx context.Context, page, limit int) (*domain.PaginatedResult[application.ExtensionDTO], error)
	GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]application.HandOverDTO, []application.ReturnDTO, error)
}

// AllocationHandler handles HTTP requests for car handover, return and extensions.
type AllocationHandler struct {
	service AllocationUseCases
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(service AllocationUseCases) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// RegisterRoutes registers allocation routes.
func (h *AllocationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffOnly := middleware.RequireRole(staffRoles...)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/:id/handover", staffOnly, h.HandOver)
		bookings.POST("/:id/return", staffOnly, h.Return)
		bookings.GET("/:id/history", staffOnly, h.History)
		bookings.POST("/:id/extensions", h.RequestExtension)
	}

	extensions := r.Group("/api/v1/extensions")
	extensions.Use(authMW, staffOnly)
	{
		extensions.GET("/pending", h.ListPending)
		extensions.POST("/:id/review", h.Review)
	}
}

// HandOver handles POST /api/v1/bookings/:id/handover.
func (h *AllocationHandler) HandOver(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.HandOverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.HandOver(c.Request.Context(), bookingID, actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Return handles POST /api/v1/bookings/:id/return.
func (h *AllocationHandler) Return(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Return(c.Request.Context(), bookingID, actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// History handles GET /api/v1/bookings/:id/history.
func (h *AllocationHandler) History(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	handovers, returns, err := h.service.GetBookingHistory(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"handovers": handovers, "returns": returns})
}

// RequestExtension handles POST /api/v1/bookings/:id/extensions.
func (h *AllocationHandler) RequestExtension(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.ExtensionRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RequestExtension(c.Request.Context(), bookingID, actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListPending handles GET /api/v1/extensions/pending.
func (h *AllocationHandler) ListPending(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListPendingExtensions(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// Review handles POST /api/v1/extensions/:id/review.
func (h *AllocationHandler) Review(c *gin.Context) {
	extensionID, ok := pathID(c, "extension")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.ReviewExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ReviewExtension(c.Request.Context(), extensionID, actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
