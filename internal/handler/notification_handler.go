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

// NotificationUseCases reads and acknowledges a user's in-app messages.
type NotificationUseCases interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) (*domain.PaginatedResult[application.NotificationDTO], error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	service NotificationUseCases
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service NotificationUseCases) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterRoutes registers notification routes.
func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	notifications := r.Group("/api/v1/notifications")
	notifications.Use(middleware.AuthMiddleware(jwtManager))
	{
		notifications.GET("", h.List)
		notifications.POST("/:id/read", h.MarkRead)
	}
}

// List handles GET /api/v1/notifications?unread=true.
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	unreadOnly := c.Query("unread") == "true"

	result, err := h.service.ListNotifications(c.Request.Context(), actor.UserID, unreadOnly, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// MarkRead handles POST /api/v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, ok := pathID(c, "notification")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), actor.UserID, notificationID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": notificationID, "is_read": true})
}
