package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// CarModel is the GORM model for the cars table.
type CarModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name               string          `gorm:"not null;size:100"`
	Brand              string          `gorm:"size:100"`
	RegistrationNumber string          `gorm:"uniqueIndex;not null;size:20"`
	Category           string          `gorm:"size:50"`
	DailyRate          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status             string          `gorm:"not null;size:20"`
	Active             bool            `gorm:"not null;default:true"`
	Version            int64           `gorm:"not null;default:1"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName sets the table name.
func (CarModel) TableName() string { return "cars" }

// GormCarRepository implements fleet.CarRepository using GORM.
type GormCarRepository struct {
	db *gorm.DB
}

// NewGormCarRepository creates a new GormCarRepository.
func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

// FindByID returns a car by ID.
func (r *GormCarRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Car, error) {
	return r.findOne(database.Conn(ctx, r.db), id)
}

// FindByIDForUpdate returns a car and locks its row until the transaction ends.
func (r *GormCarRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.Car, error) {
	return r.findOne(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormCarRepository) findOne(q *gorm.DB, id uuid.UUID) (*fleet.Car, error) {
	var model CarModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Car", id.String())
		}
		return nil, fmt.Errorf("failed to find car: %w", err)
	}
	return toDomainCar(&model)
}

// CountAvailable counts active cars whose status is Available.
func (r *GormCarRepository) CountAvailable(ctx context.Context) (int64, error) {
	var n int64
	if err := database.Conn(ctx, r.db).Model(&CarModel{}).
		Where("active = ? AND status = ?", true, string(fleet.CarStatusAvailable)).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count available cars: %w", err)
	}
	return n, nil
}

// FindAll lists cars by name.
func (r *GormCarRepository) FindAll(ctx context.Context, activeOnly bool, page, limit int) ([]*fleet.Car, int64, error) {
	q := database.Conn(ctx, r.db).Model(&CarModel{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}
	var models []CarModel
	if err := q.Order("name ASC").Offset(offset(page, limit)).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list cars: %w", err)
	}

	cars := make([]*fleet.Car, len(models))
	for i := range models {
		c, err := toDomainCar(&models[i])
		if err != nil {
			return nil, 0, err
		}
		cars[i] = c
	}
	return cars, total, nil
}

// Save persists a new car.
func (r *GormCarRepository) Save(ctx context.Context, car *fleet.Car) error {
	if err := database.Conn(ctx, r.db).Create(toCarModel(car)).Error; err != nil {
		return translateWriteError(err, "save car", car.ID().String())
	}
	return nil
}

// Update persists a car with optimistic locking.
func (r *GormCarRepository) Update(ctx context.Context, car *fleet.Car) error {
	model := toCarModel(car)
	result := database.Conn(ctx, r.db).
		Model(&CarModel{}).
		Where("id = ? AND version = ?", model.ID, car.Version()-1).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"brand":      model.Brand,
			"category":   model.Category,
			"daily_rate": model.DailyRate,
			"status":     model.Status,
			"active":     model.Active,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return translateWriteError(result.Error, "update car", car.ID().String())
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("car was modified by another transaction")
	}
	return nil
}

func toCarModel(c *fleet.Car) *CarModel {
	return &CarModel{
		ID:                 c.ID(),
		Name:               c.Name(),
		Brand:              c.Brand(),
		RegistrationNumber: c.RegistrationNumber(),
		Category:           c.Category(),
		DailyRate:          c.DailyRate(),
		Status:             string(c.Status()),
		Active:             c.IsActive(),
		Version:            c.Version(),
		CreatedAt:          c.CreatedAt(),
		UpdatedAt:          c.UpdatedAt(),
	}
}

func toDomainCar(m *CarModel) (*fleet.Car, error) {
	status, err := fleet.ParseCarStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return fleet.ReconstructCar(m.ID, m.Name, m.Brand, m.RegistrationNumber, m.Category,
		m.DailyRate, status, m.Active, m.Version, m.CreatedAt, m.UpdatedAt), nil
}

// StaffModel is the GORM model for the staff table.
type StaffModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	FullName     string    `gorm:"not null;size:150"`
	IsDriver     bool      `gorm:"not null;default:false"`
	Availability string    `gorm:"not null;size:20"`
	Version      int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (StaffModel) TableName() string { return "staff" }

// GormStaffRepository implements fleet.StaffRepository using GORM.
type GormStaffRepository struct {
	db *gorm.DB
}

// NewGormStaffRepository creates a new GormStaffRepository.
func NewGormStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

// FindByID returns a staff member by ID.
func (r *GormStaffRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Staff, error) {
	return r.findOne(database.Conn(ctx, r.db), id)
}

// FindByIDForUpdate returns a staff member and locks the row.
func (r *GormStaffRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.Staff, error) {
	return r.findOne(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormStaffRepository) findOne(q *gorm.DB, id uuid.UUID) (*fleet.Staff, error) {
	var model StaffModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Staff", id.String())
		}
		return nil, fmt.Errorf("failed to find staff: %w", err)
	}
	return toDomainStaff(&model)
}

// CountDriversByAvailability counts drivers in the given availability state.
func (r *GormStaffRepository) CountDriversByAvailability(ctx context.Context, availability fleet.Availability) (int64, error) {
	var n int64
	if err := database.Conn(ctx, r.db).Model(&StaffModel{}).
		Where("is_driver = ? AND availability = ?", true, string(availability)).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count drivers: %w", err)
	}
	return n, nil
}

// FindDrivers lists every staff member flagged as a driver.
func (r *GormStaffRepository) FindDrivers(ctx context.Context) ([]*fleet.Staff, error) {
	var models []StaffModel
	if err := database.Conn(ctx, r.db).Where("is_driver = ?", true).Order("full_name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	out := make([]*fleet.Staff, len(models))
	for i := range models {
		s, err := toDomainStaff(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ListUserIDs returns the user ids of all staff members.
func (r *GormStaffRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := database.Conn(ctx, r.db).Model(&StaffModel{}).Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list staff users: %w", err)
	}
	return ids, nil
}

// Save persists a new staff member.
func (r *GormStaffRepository) Save(ctx context.Context, s *fleet.Staff) error {
	if err := database.Conn(ctx, r.db).Create(toStaffModel(s)).Error; err != nil {
		return translateWriteError(err, "save staff", s.ID().String())
	}
	return nil
}

// Update persists a staff member with optimistic locking.
func (r *GormStaffRepository) Update(ctx context.Context, s *fleet.Staff) error {
	model := toStaffModel(s)
	result := database.Conn(ctx, r.db).
		Model(&StaffModel{}).
		Where("id = ? AND version = ?", model.ID, s.Version()-1).
		Updates(map[string]interface{}{
			"full_name":    model.FullName,
			"is_driver":    model.IsDriver,
			"availability": model.Availability,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update staff: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("staff was modified by another transaction")
	}
	return nil
}

func toStaffModel(s *fleet.Staff) *StaffModel {
	return &StaffModel{
		ID:           s.ID(),
		UserID:       s.UserID(),
		FullName:     s.FullName(),
		IsDriver:     s.IsDriver(),
		Availability: string(s.Availability()),
		Version:      s.Version(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

func toDomainStaff(m *StaffModel) (*fleet.Staff, error) {
	availability, err := fleet.ParseAvailability(m.Availability)
	if err != nil {
		return nil, err
	}
	return fleet.ReconstructStaff(m.ID, m.UserID, m.FullName, m.IsDriver, availability, m.Version, m.CreatedAt, m.UpdatedAt), nil
}

// DriverScheduleModel is the GORM model for the driver_schedules table.
type DriverScheduleModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StaffID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	StartDate time.Time  `gorm:"type:date;not null"`
	EndDate   time.Time  `gorm:"type:date;not null"`
	BookingID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (DriverScheduleModel) TableName() string { return "driver_schedules" }

// GormDriverScheduleRepository implements fleet.DriverScheduleRepository using GORM.
type GormDriverScheduleRepository struct {
	db *gorm.DB
}

// NewGormDriverScheduleRepository creates a new GormDriverScheduleRepository.
func NewGormDriverScheduleRepository(db *gorm.DB) *GormDriverScheduleRepository {
	return &GormDriverScheduleRepository{db: db}
}

// FindByStaffID returns every schedule of a driver.
func (r *GormDriverScheduleRepository) FindByStaffID(ctx context.Context, staffID uuid.UUID) ([]*fleet.DriverSchedule, error) {
	return r.find(database.Conn(ctx, r.db).Where("staff_id = ?", staffID))
}

// FindByBookingID returns the schedules written for a booking.
func (r *GormDriverScheduleRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*fleet.DriverSchedule, error) {
	return r.find(database.Conn(ctx, r.db).Where("booking_id = ?", bookingID))
}

func (r *GormDriverScheduleRepository) find(q *gorm.DB) ([]*fleet.DriverSchedule, error) {
	var models []DriverScheduleModel
	if err := q.Order("start_date ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find driver schedules: %w", err)
	}
	out := make([]*fleet.DriverSchedule, len(models))
	for i, m := range models {
		out[i] = fleet.ReconstructDriverSchedule(m.ID, m.StaffID, m.StartDate, m.EndDate, m.BookingID, m.CreatedAt, m.UpdatedAt)
	}
	return out, nil
}

// Save persists a new schedule.
func (r *GormDriverScheduleRepository) Save(ctx context.Context, s *fleet.DriverSchedule) error {
	if err := database.Conn(ctx, r.db).Create(toDriverScheduleModel(s)).Error; err != nil {
		return translateWriteError(err, "save driver schedule", s.StaffID().String())
	}
	return nil
}

// Update moves a schedule to its current period.
func (r *GormDriverScheduleRepository) Update(ctx context.Context, s *fleet.DriverSchedule) error {
	model := toDriverScheduleModel(s)
	err := database.Conn(ctx, r.db).Model(&DriverScheduleModel{}).Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"start_date": model.StartDate,
			"end_date":   model.EndDate,
			"updated_at": model.UpdatedAt,
		}).Error
	if err != nil {
		return translateWriteError(err, "update driver schedule", s.StaffID().String())
	}
	return nil
}

// DeleteByBookingID removes the schedules written for a booking.
func (r *GormDriverScheduleRepository) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error {
	if err := database.Conn(ctx, r.db).Where("booking_id = ?", bookingID).Delete(&DriverScheduleModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete driver schedules: %w", err)
	}
	return nil
}

func toDriverScheduleModel(s *fleet.DriverSchedule) *DriverScheduleModel {
	return &DriverScheduleModel{
		ID:        s.ID(),
		StaffID:   s.StaffID(),
		StartDate: s.Period().Start,
		EndDate:   s.Period().End,
		BookingID: s.BookingID(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}

// MaintenanceModel is the GORM model for the car_maintenance table.
type MaintenanceModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CarID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReportedBy  uuid.UUID       `gorm:"type:uuid;not null"`
	Type        string          `gorm:"not null;size:50"`
	Description string          `gorm:"type:text"`
	StartDate   time.Time       `gorm:"not null"`
	EndDate     *time.Time      `gorm:""`
	Cost        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status      string          `gorm:"not null;size:20"`
	CompletedAt *time.Time      `gorm:""`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName sets the table name.
func (MaintenanceModel) TableName() string { return "car_maintenance" }

// GormMaintenanceRepository implements fleet.MaintenanceRepository using GORM.
type GormMaintenanceRepository struct {
	db *gorm.DB
}

// NewGormMaintenanceRepository creates a new GormMaintenanceRepository.
func NewGormMaintenanceRepository(db *gorm.DB) *GormMaintenanceRepository {
	return &GormMaintenanceRepository{db: db}
}

// FindByID returns a maintenance job by ID.
func (r *GormMaintenanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Maintenance, error) {
	var model MaintenanceModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Maintenance", id.String())
		}
		return nil, fmt.Errorf("failed to find maintenance: %w", err)
	}
	return toDomainMaintenance(&model), nil
}

// FindByCarID returns the maintenance history of a car, newest first.
func (r *GormMaintenanceRepository) FindByCarID(ctx context.Context, carID uuid.UUID) ([]*fleet.Maintenance, error) {
	var models []MaintenanceModel
	if err := database.Conn(ctx, r.db).Where("car_id = ?", carID).Order("start_date DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find maintenance: %w", err)
	}
	out := make([]*fleet.Maintenance, len(models))
	for i := range models {
		out[i] = toDomainMaintenance(&models[i])
	}
	return out, nil
}

// Save persists a new maintenance job.
func (r *GormMaintenanceRepository) Save(ctx context.Context, m *fleet.Maintenance) error {
	if err := database.Conn(ctx, r.db).Create(toMaintenanceModel(m)).Error; err != nil {
		return fmt.Errorf("failed to save maintenance: %w", err)
	}
	return nil
}

// Update persists changes to a maintenance job.
func (r *GormMaintenanceRepository) Update(ctx context.Context, m *fleet.Maintenance) error {
	model := toMaintenanceModel(m)
	err := database.Conn(ctx, r.db).Model(&MaintenanceModel{}).Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"end_date":     model.EndDate,
			"cost":         model.Cost,
			"status":       model.Status,
			"completed_at": model.CompletedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update maintenance: %w", err)
	}
	return nil
}

func toMaintenanceModel(m *fleet.Maintenance) *MaintenanceModel {
	return &MaintenanceModel{
		ID:          m.ID(),
		CarID:       m.CarID(),
		ReportedBy:  m.ReportedBy(),
		Type:        m.Type(),
		Description: m.Description(),
		StartDate:   m.StartDate(),
		EndDate:     m.EndDate(),
		Cost:        m.Cost(),
		Status:      string(m.Status()),
		CompletedAt: m.CompletedAt(),
		CreatedAt:   m.CreatedAt(),
	}
}

func toDomainMaintenance(m *MaintenanceModel) *fleet.Maintenance {
	return fleet.ReconstructMaintenance(m.ID, m.CarID, m.ReportedBy, m.Type, m.Description,
		m.StartDate, m.EndDate, m.Cost, fleet.MaintenanceStatus(m.Status), m.CompletedAt, m.CreatedAt)
}
