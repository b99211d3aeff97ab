package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/picktoride/service-rental/internal/domain/audit"
	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// RegisterCarRequest is the request DTO for adding a car to the fleet.
type RegisterCarRequest struct {
	Name               string          `json:"name" binding:"required"`
	Brand              string          `json:"brand"`
	RegistrationNumber string          `json:"registration_number" binding:"required"`
	Category           string          `json:"category"`
	DailyRate          decimal.Decimal `json:"daily_rate" binding:"required"`
}

// RegisterStaffRequest is the request DTO for adding a staff member.
type RegisterStaffRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	FullName string    `json:"full_name" binding:"required"`
	IsDriver bool      `json:"is_driver"`
}

// StartMaintenanceRequest opens a maintenance job.
type StartMaintenanceRequest struct {
	CarID       uuid.UUID       `json:"car_id" binding:"required"`
	Type        string          `json:"type" binding:"required"`
	Description string          `json:"description"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Cost        decimal.Decimal `json:"cost"`
}

// CompleteMaintenanceRequest closes a maintenance job.
type CompleteMaintenanceRequest struct {
	FinalCost *decimal.Decimal `json:"final_cost"`
}

// FleetService implements use cases for cars, staff and maintenance.
type FleetService struct {
	tx      TxManager
	stores  Stores
	effects *SideEffects
	logger  *zap.Logger
}

// NewFleetService creates a new FleetService.
func NewFleetService(tx TxManager, stores Stores, effects *SideEffects, logger *zap.Logger) *FleetService {
	return &FleetService{tx: tx, stores: stores, effects: effects, logger: logger}
}

// RegisterCar adds a car to the fleet.
func (s *FleetService) RegisterCar(ctx context.Context, actor Actor, req RegisterCarRequest) (*CarDTO, error) {
	car, err := fleet.NewCar(req.Name, req.Brand, req.RegistrationNumber, req.Category, req.DailyRate)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Cars.Save(ctx, car); err != nil {
		return nil, err
	}

	s.logger.Info("car registered", zap.String("car_id", car.ID().String()), zap.String("registration", car.RegistrationNumber()))
	s.effects.Audit(ctx, audit.ActionCreate, "Car", car.ID().String(), actor.UserID, "Car "+car.RegistrationNumber()+" registered")

	result := toCarDTO(car)
	return &result, nil
}

// GetCar retrieves a car by ID.
func (s *FleetService) GetCar(ctx context.Context, carID uuid.UUID) (*CarDTO, error) {
	car, err := s.stores.Cars.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	result := toCarDTO(car)
	return &result, nil
}

// ListCars lists cars, optionally only those still offered for rent.
func (s *FleetService) ListCars(ctx context.Context, activeOnly bool, page, limit int) (*domain.PaginatedResult[CarDTO], error) {
	cars, total, err := s.stores.Cars.FindAll(ctx, activeOnly, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]CarDTO, len(cars))
	for i, c := range cars {
		dtos[i] = toCarDTO(c)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// DeactivateCar withdraws a car from the catalog. Existing bookings are untouched.
func (s *FleetService) DeactivateCar(ctx context.Context, carID uuid.UUID, actor Actor) (*CarDTO, error) {
	var car *fleet.Car
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		car, err = s.stores.Cars.FindByIDForUpdate(ctx, carID)
		if err != nil {
			return err
		}
		car.Deactivate()
		return s.stores.Cars.Update(ctx, car)
	})
	if err != nil {
		return nil, err
	}

	s.effects.Audit(ctx, audit.ActionUpdate, "Car", car.ID().String(), actor.UserID, "Car deactivated")
	result := toCarDTO(car)
	return &result, nil
}

// RegisterStaff adds a staff member, optionally as a driver.
func (s *FleetService) RegisterStaff(ctx context.Context, actor Actor, req RegisterStaffRequest) (*StaffDTO, error) {
	staff, err := fleet.NewStaff(req.UserID, req.FullName, req.IsDriver)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Staff.Save(ctx, staff); err != nil {
		return nil, err
	}

	s.effects.Audit(ctx, audit.ActionCreate, "Staff", staff.ID().String(), actor.UserID, "Staff "+staff.FullName()+" registered")
	result := toStaffDTO(staff)
	return &result, nil
}

// ListDrivers lists staff members who can be assigned to bookings.
func (s *FleetService) ListDrivers(ctx context.Context) ([]StaffDTO, error) {
	drivers, err := s.stores.Staff.FindDrivers(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]StaffDTO, len(drivers))
	for i, d := range drivers {
		dtos[i] = toStaffDTO(d)
	}
	return dtos, nil
}

// SetStaffUnavailable takes a staff member off the roster.
func (s *FleetService) SetStaffUnavailable(ctx context.Context, staffID uuid.UUID, actor Actor) (*StaffDTO, error) {
	var staff *fleet.Staff
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		staff, err = s.stores.Staff.FindByIDForUpdate(ctx, staffID)
		if err != nil {
			return err
		}
		staff.SetUnavailable()
		return s.stores.Staff.Update(ctx, staff)
	})
	if err != nil {
		return nil, err
	}

	s.effects.Audit(ctx, audit.ActionUpdate, "Staff", staff.ID().String(), actor.UserID, "Staff marked unavailable")
	result := toStaffDTO(staff)
	return &result, nil
}

// StartMaintenance opens a maintenance job and takes the car off the road.
func (s *FleetService) StartMaintenance(ctx context.Context, actor Actor, req StartMaintenanceRequest) (*MaintenanceDTO, error) {
	start := time.Now().UTC()
	if req.StartDate != "" {
		parsed, err := parseDate("start_date", req.StartDate)
		if err != nil {
			return nil, err
		}
		start = parsed
	}
	var end *time.Time
	if req.EndDate != "" {
		parsed, err := parseDate("end_date", req.EndDate)
		if err != nil {
			return nil, err
		}
		end = &parsed
	}

	m, err := fleet.NewMaintenance(req.CarID, actor.UserID, req.Type, req.Description, start, end, req.Cost)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		car, err := s.stores.Cars.FindByIDForUpdate(ctx, req.CarID)
		if err != nil {
			return err
		}
		if err := car.SendToMaintenance(); err != nil {
			return err
		}
		if err := s.stores.Cars.Update(ctx, car); err != nil {
			return err
		}
		return s.stores.Maintenance.Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("maintenance started", zap.String("car_id", req.CarID.String()), zap.String("maintenance_id", m.ID().String()))
	s.effects.Audit(ctx, audit.ActionMaintain, "Maintenance", m.ID().String(), actor.UserID,
		fmt.Sprintf("%s started on car %s", m.Type(), m.CarID()))

	result := toMaintenanceDTO(m)
	return &result, nil
}

// CompleteMaintenance closes a maintenance job and returns the car to service.
func (s *FleetService) CompleteMaintenance(ctx context.Context, maintenanceID uuid.UUID, actor Actor, req CompleteMaintenanceRequest) (*MaintenanceDTO, error) {
	var m *fleet.Maintenance
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.stores.Maintenance.FindByID(ctx, maintenanceID)
		if err != nil {
			return err
		}
		car, err := s.stores.Cars.FindByIDForUpdate(ctx, m.CarID())
		if err != nil {
			return err
		}
		if err := m.Complete(req.FinalCost); err != nil {
			return err
		}
		if err := s.stores.Maintenance.Update(ctx, m); err != nil {
			return err
		}
		if !car.FinishMaintenance() {
			return nil
		}
		return s.stores.Cars.Update(ctx, car)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("maintenance completed", zap.String("car_id", m.CarID().String()), zap.String("maintenance_id", m.ID().String()))
	s.effects.Audit(ctx, audit.ActionMaintain, "Maintenance", m.ID().String(), actor.UserID,
		fmt.Sprintf("%s completed on car %s, cost %s", m.Type(), m.CarID(), m.Cost().StringFixed(2)))

	result := toMaintenanceDTO(m)
	return &result, nil
}

// ListCarMaintenance lists the maintenance history of a car.
func (s *FleetService) ListCarMaintenance(ctx context.Context, carID uuid.UUID) ([]MaintenanceDTO, error) {
	items, err := s.stores.Maintenance.FindByCarID(ctx, carID)
	if err != nil {
		return nil, err
	}
	dtos := make([]MaintenanceDTO, len(items))
	for i, m := range items {
		dtos[i] = toMaintenanceDTO(m)
	}
	return dtos, nil
}
