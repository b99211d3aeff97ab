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

// BookingUseCases is the booking lifecycle surface the HTTP layer drives.
type BookingUseCases interface {
	CreateBooking(ctx context.Context, customerID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor application.Actor) (*application.BookingDTO, error)
	EditBooking(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.EditBookingRequest) (*application.BookingDTO, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID, actor application.Actor) (*application.BookingDTO, error)
	GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingUseCases
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingUseCases) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleCustomer), h.CreateBooking)
		bookings.GET("", h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", middleware.RequireRole(staffRoles...), h.EditBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyBookings handles GET /api/v1/bookings and returns the caller's own bookings.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.GetCustomerBookings(c.Request.Context(), actor.UserID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// EditBooking handles PUT /api/v1/bookings/:id.
func (h *BookingHandler) EditBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.EditBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.EditBooking(c.Request.Context(), bookingID, actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
