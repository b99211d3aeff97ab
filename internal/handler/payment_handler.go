package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/application"
	"github.com/picktoride/service-rental/internal/platform/auth"
	"github.com/picktoride/service-rental/internal/platform/middleware"
	"github.com/picktoride/service-rental/internal/platform/response"
)

// PaymentUseCases is the simulated checkout surface.
type PaymentUseCases interface {
	Pay(ctx context.Context, bookingID uuid.UUID, actor application.Actor, req application.PayRequest) (*application.PaymentResultDTO, error)
	GetLatestPayment(ctx context.Context, bookingID uuid.UUID, actor application.Actor) (*application.PaymentDTO, error)
}

// PaymentHandler handles HTTP requests for booking payments.
type PaymentHandler struct {
	service PaymentUseCases
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service PaymentUseCases) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers payment routes.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/api/v1/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("/:id/pay", middleware.RequireRole(auth.RoleCustomer), h.Pay)
		bookings.GET("/:id/payment", h.GetPayment)
	}
}

// Pay handles POST /api/v1/bookings/:id/pay. An empty body pays by card.
func (h *PaymentHandler) Pay(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.PayRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.Pay(c.Request.Context(), bookingID, actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetPayment handles GET /api/v1/bookings/:id/payment.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.service.GetLatestPayment(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
