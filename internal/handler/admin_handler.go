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

// AdminUseCases backs the admin dashboard.
type AdminUseCases interface {
	ListAllBookings(ctx context.Context, status string, page, limit int) ([]application.BookingDTO, int64, error)
	GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service AdminUseCases
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service AdminUseCases) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings?status=booked.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// AuditLogUseCases reads the audit trail.
type AuditLogUseCases interface {
	ListEntries(ctx context.Context, entityName, entityID string, page, limit int) (*domain.PaginatedResult[application.AuditLogDTO], error)
	GetEntry(ctx context.Context, id uuid.UUID) (*application.AuditLogDTO, error)
}

// AuditLogHandler exposes the audit trail to staff.
type AuditLogHandler struct {
	service AuditLogUseCases
}

// NewAuditLogHandler creates a new AuditLogHandler.
func NewAuditLogHandler(service AuditLogUseCases) *AuditLogHandler {
	return &AuditLogHandler{service: service}
}

// RegisterRoutes registers audit log routes.
func (h *AuditLogHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	logs := r.Group("/api/v1/admin/audit-logs")
	logs.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(staffRoles...))
	{
		logs.GET("", h.List)
		logs.GET("/:id", h.Get)
	}
}

// List handles GET /api/v1/admin/audit-logs?entity=Booking&entity_id=...
func (h *AuditLogHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListEntries(c.Request.Context(), c.Query("entity"), c.Query("entity_id"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// Get handles GET /api/v1/admin/audit-logs/:id.
func (h *AuditLogHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "audit log")
	if !ok {
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entry)
}
