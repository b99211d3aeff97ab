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

	bookingDomain "github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingCode    string          `gorm:"uniqueIndex;not null;size:6"`
	CarID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	DriverID       *uuid.UUID      `gorm:"type:uuid;index"`
	StartDate      time.Time       `gorm:"type:date;not null"`
	EndDate        time.Time       `gorm:"type:date;not null"`
	Status         string          `gorm:"not null;size:20;index"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency       string          `gorm:"not null;size:3;default:'LKR'"`
	DriverRequired bool            `gorm:"not null;default:false"`
	PickupLocation string          `gorm:"size:255"`
	PaymentID      *uuid.UUID      `gorm:"type:uuid"`
	ConfirmedAt    *time.Time      `gorm:""`
	CancelledAt    *time.Time      `gorm:""`
	CancelledBy    *uuid.UUID      `gorm:"type:uuid"`
	CompletedAt    *time.Time      `gorm:""`
	Version        int64           `gorm:"not null;default:1"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(database.Conn(ctx, r.db).Where("id = ?", id), id.String())
}

// FindByIDForUpdate retrieves a booking and locks its row until the transaction ends.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id), id.String())
}

// FindByCode retrieves a booking by its booking code.
func (r *GormBookingRepository) FindByCode(ctx context.Context, code string) (*bookingDomain.Booking, error) {
	return r.findOne(database.Conn(ctx, r.db).Where("booking_code = ?", code), code)
}

func (r *GormBookingRepository) findOne(q *gorm.DB, ref string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", ref)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return toDomainBooking(&model)
}

// ExistsByCode reports whether a booking already uses code.
func (r *GormBookingRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).Where("booking_code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check booking code: %w", err)
	}
	return count > 0, nil
}

// FindNonCancelledByCar returns every booking that still occupies the car.
func (r *GormBookingRepository) FindNonCancelledByCar(ctx context.Context, carID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := database.Conn(ctx, r.db).
		Where("car_id = ? AND status <> ?", carID, string(bookingDomain.StatusCancelled)).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find car bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindNonCancelledByDriver returns every booking that still references the driver.
func (r *GormBookingRepository) FindNonCancelledByDriver(ctx context.Context, driverID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := database.Conn(ctx, r.db).
		Where("driver_id = ? AND status <> ?", driverID, string(bookingDomain.StatusCancelled)).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find driver bookings: %w", err)
	}
	return toDomainBookings(models)
}

// CountActiveByDriver counts pending and booked bookings of a driver other than excludeBookingID.
func (r *GormBookingRepository) CountActiveByDriver(ctx context.Context, driverID, excludeBookingID uuid.UUID) (int64, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).
		Where("driver_id = ? AND id <> ? AND status IN ?", driverID, excludeBookingID,
			[]string{string(bookingDomain.StatusPending), string(bookingDomain.StatusBooked)}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count driver bookings: %w", err)
	}
	return count, nil
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(database.Conn(ctx, r.db).Model(&BookingModel{}).Where("customer_id = ?", customerID), page, limit)
}

// ListAll retrieves all bookings with pagination, optionally filtered by status (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, status *bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	q := database.Conn(ctx, r.db).Model(&BookingModel{})
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	return r.paginate(q, page, limit)
}

func (r *GormBookingRepository) paginate(q *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := q.Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// CountCreatedPerDay counts bookings created in [from, to) grouped by UTC date.
func (r *GormBookingRepository) CountCreatedPerDay(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	type dayCount struct {
		CreatedDay string
		Count      int64
	}
	var results []dayCount
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).
		Select("to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS created_day, count(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("created_day").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings per day: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, dc := range results {
		counts[dc.CreatedDay] = dc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := database.Conn(ctx, r.db).Create(toBookingModel(bk)).Error; err != nil {
		return translateWriteError(err, "save booking", bk.CarID().String())
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called before Update, so the stored row holds version-1.
	expectedVersion := bk.Version() - 1
	result := database.Conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"car_id":          model.CarID,
			"driver_id":       model.DriverID,
			"start_date":      model.StartDate,
			"end_date":        model.EndDate,
			"status":          model.Status,
			"total_amount":    model.TotalAmount,
			"currency":        model.Currency,
			"driver_required": model.DriverRequired,
			"pickup_location": model.PickupLocation,
			"payment_id":      model.PaymentID,
			"confirmed_at":    model.ConfirmedAt,
			"cancelled_at":    model.CancelledAt,
			"cancelled_by":    model.CancelledBy,
			"completed_at":    model.CompletedAt,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return translateWriteError(result.Error, "update booking", bk.CarID().String())
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:             bk.ID(),
		BookingCode:    bk.BookingCode(),
		CarID:          bk.CarID(),
		CustomerID:     bk.CustomerID(),
		DriverID:       bk.DriverID(),
		StartDate:      bk.StartDate(),
		EndDate:        bk.EndDate(),
		Status:         bk.Status().String(),
		TotalAmount:    bk.TotalAmount(),
		Currency:       bk.Currency(),
		DriverRequired: bk.DriverRequired(),
		PickupLocation: bk.PickupLocation(),
		PaymentID:      bk.PaymentID(),
		ConfirmedAt:    bk.ConfirmedAt(),
		CancelledAt:    bk.CancelledAt(),
		CancelledBy:    bk.CancelledBy(),
		CompletedAt:    bk.CompletedAt(),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(bookingDomain.ReconstructParams{
		ID:             m.ID,
		BookingCode:    m.BookingCode,
		CarID:          m.CarID,
		CustomerID:     m.CustomerID,
		DriverID:       m.DriverID,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		Status:         status,
		TotalAmount:    m.TotalAmount,
		Currency:       m.Currency,
		DriverRequired: m.DriverRequired,
		PickupLocation: m.PickupLocation,
		PaymentID:      m.PaymentID,
		ConfirmedAt:    m.ConfirmedAt,
		CancelledAt:    m.CancelledAt,
		CancelledBy:    m.CancelledBy,
		CompletedAt:    m.CompletedAt,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
