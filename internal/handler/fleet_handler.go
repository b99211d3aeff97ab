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

// FleetUseCases manages the car catalog, staff and maintenance.
type FleetUseCases interface {
	RegisterCar(ctx context.Context, actor application.Actor, req application.RegisterCarRequest) (*application.CarDTO, error)
	GetCar(ctx context.Context, carID uuid.UUID) (*application.CarDTO, error)
	ListCars(ctx context.Context, activeOnly bool, page, limit int) (*domain.PaginatedResult[application.CarDTO], error)
	DeactivateCar(ctx context.Context, carID uuid.UUID, actor application.Actor) (*application.CarDTO, error)
	RegisterStaff(ctx context.Context, actor application.Actor, req application.RegisterStaffRequest) (*application.StaffDTO, error)
	ListDrivers(ctx context.Context) ([]application.StaffDTO, error)
	SetStaffUnavailable(ctx context.Context, staffID uuid.UUID, actor application.Actor) (*application.StaffDTO, error)
	StartMaintenance(ctx context.Context, actor application.Actor, req application.StartMaintenanceRequest) (*application.MaintenanceDTO, error)
	CompleteMaintenance(ctx context.Context, maintenanceID uuid.UUID, actor application.Actor, req application.CompleteMaintenanceRequest) (*application.MaintenanceDTO, error)
	ListCarMaintenance(ctx context.Context, carID uuid.UUID) ([]application.MaintenanceDTO, error)
}

// FleetHandler handles HTTP requests for cars, drivers and maintenance.
type FleetHandler struct {
	service FleetUseCases
}

// NewFleetHandler creates a new FleetHandler.
func NewFleetHandler(service FleetUseCases) *FleetHandler {
	return &FleetHandler{service: service}
}

// RegisterRoutes registers fleet routes. Browsing is open to any signed-in user.
func (h *FleetHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffOnly := middleware.RequireRole(staffRoles...)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	cars := r.Group("/api/v1/cars")
	cars.Use(authMW)
	{
		cars.GET("", h.ListCars)
		cars.GET("/:id", h.GetCar)
		cars.POST("", adminOnly, h.RegisterCar)
		cars.POST("/:id/deactivate", adminOnly, h.DeactivateCar)
		cars.GET("/:id/maintenance", staffOnly, h.ListMaintenance)
	}

	r.GET("/api/v1/drivers", authMW, h.ListDrivers)

	staff := r.Group("/api/v1/staff")
	staff.Use(authMW)
	{
		staff.POST("", adminOnly, h.RegisterStaff)
		staff.POST("/:id/unavailable", staffOnly, h.SetUnavailable)
	}

	maintenance := r.Group("/api/v1/maintenance")
	maintenance.Use(authMW, staffOnly)
	{
		maintenance.POST("", h.StartMaintenance)
		maintenance.POST("/:id/complete", h.CompleteMaintenance)
	}
}

// ListCars handles GET /api/v1/cars. Pass all=true to include retired cars.
func (h *FleetHandler) ListCars(c *gin.Context) {
	page, limit := parsePagination(c)
	activeOnly := c.Query("all") != "true"

	result, err := h.service.ListCars(c.Request.Context(), activeOnly, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetCar handles GET /api/v1/cars/:id.
func (h *FleetHandler) GetCar(c *gin.Context) {
	carID, ok := pathID(c, "car")
	if !ok {
		return
	}

	result, err := h.service.GetCar(c.Request.Context(), carID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RegisterCar handles POST /api/v1/cars.
func (h *FleetHandler) RegisterCar(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.RegisterCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RegisterCar(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// DeactivateCar handles POST /api/v1/cars/:id/deactivate.
func (h *FleetHandler) DeactivateCar(c *gin.Context) {
	carID, ok := pathID(c, "car")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.service.DeactivateCar(c.Request.Context(), carID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMaintenance handles GET /api/v1/cars/:id/maintenance.
func (h *FleetHandler) ListMaintenance(c *gin.Context) {
	carID, ok := pathID(c, "car")
	if !ok {
		return
	}

	result, err := h.service.ListCarMaintenance(c.Request.Context(), carID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListDrivers handles GET /api/v1/drivers.
func (h *FleetHandler) ListDrivers(c *gin.Context) {
	result, err := h.service.ListDrivers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RegisterStaff handles POST /api/v1/staff.
func (h *FleetHandler) RegisterStaff(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.RegisterStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RegisterStaff(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// SetUnavailable handles POST /api/v1/staff/:id/unavailable.
func (h *FleetHandler) SetUnavailable(c *gin.Context) {
	staffID, ok := pathID(c, "staff")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.service.SetStaffUnavailable(c.Request.Context(), staffID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// StartMaintenance handles POST /api/v1/maintenance.
func (h *FleetHandler) StartMaintenance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.StartMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.StartMaintenance(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CompleteMaintenance handles POST /api/v1/maintenance/:id/complete.
func (h *FleetHandler) CompleteMaintenance(c *gin.Context) {
	maintenanceID, ok := pathID(c, "maintenance")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CompleteMaintenanceRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.CompleteMaintenance(c.Request.Context(), maintenanceID, actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
