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

	"github.com/picktoride/service-rental/internal/domain/allocation"
	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// HandOverModel is the GORM model for the handover_records table.
type HandOverModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null"`
	HandedOverAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (HandOverModel) TableName() string { return "handover_records" }

// GormHandOverRepository implements allocation.HandOverRepository using GORM.
type GormHandOverRepository struct {
	db *gorm.DB
}

// NewGormHandOverRepository creates a new GormHandOverRepository.
func NewGormHandOverRepository(db *gorm.DB) *GormHandOverRepository {
	return &GormHandOverRepository{db: db}
}

// Save appends a handover record.
func (r *GormHandOverRepository) Save(ctx context.Context, rec *allocation.HandOverRecord) error {
	model := HandOverModel{
		ID:           rec.ID(),
		BookingID:    rec.BookingID(),
		UserID:       rec.UserID(),
		HandedOverAt: rec.HandedOverAt(),
	}
	if err := database.Conn(ctx, r.db).Create(&model).Error; err != nil {
		return translateWriteError(err, "save handover record", rec.BookingID().String())
	}
	return nil
}

// FindByBookingID returns the handover records of a booking in order.
func (r *GormHandOverRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*allocation.HandOverRecord, error) {
	var models []HandOverModel
	if err := database.Conn(ctx, r.db).Where("booking_id = ?", bookingID).Order("handed_over_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find handover records: %w", err)
	}
	out := make([]*allocation.HandOverRecord, len(models))
	for i, m := range models {
		out[i] = allocation.ReconstructHandOverRecord(m.ID, m.BookingID, m.UserID, m.HandedOverAt)
	}
	return out, nil
}

// ReturnModel is the GORM model for the return_records table.
type ReturnModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null"`
	ReturnedAt   time.Time       `gorm:"not null"`
	CarCondition string          `gorm:"type:text;not null"`
	ExtraCharge  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName sets the table name.
func (ReturnModel) TableName() string { return "return_records" }

// GormReturnRepository implements allocation.ReturnRepository using GORM.
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository.
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// Save appends a return record.
func (r *GormReturnRepository) Save(ctx context.Context, rec *allocation.ReturnRecord) error {
	model := ReturnModel{
		ID:           rec.ID(),
		BookingID:    rec.BookingID(),
		UserID:       rec.UserID(),
		ReturnedAt:   rec.ReturnedAt(),
		CarCondition: rec.CarCondition(),
		ExtraCharge:  rec.ExtraCharge(),
	}
	if err := database.Conn(ctx, r.db).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save return record: %w", err)
	}
	return nil
}

// FindByBookingID returns the return records of a booking in order.
func (r *GormReturnRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*allocation.ReturnRecord, error) {
	var models []ReturnModel
	if err := database.Conn(ctx, r.db).Where("booking_id = ?", bookingID).Order("returned_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find return records: %w", err)
	}
	out := make([]*allocation.ReturnRecord, len(models))
	for i, m := range models {
		out[i] = allocation.ReconstructReturnRecord(m.ID, m.BookingID, m.UserID, m.ReturnedAt, m.CarCondition, m.ExtraCharge)
	}
	return out, nil
}

// ExtensionModel is the GORM model for the booking_extension_requests table.
type ExtensionModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	RequestedBy  uuid.UUID  `gorm:"type:uuid;not null"`
	PreviousEnd  time.Time  `gorm:"type:date;not null"`
	NewEndDate   time.Time  `gorm:"type:date;not null"`
	Reason       string     `gorm:"type:text"`
	Status       string     `gorm:"not null;size:20;index"`
	RequestDate  time.Time  `gorm:"not null"`
	ReviewedBy   *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt   *time.Time `gorm:""`
	AutoApproved bool       `gorm:"not null;default:false"`
}

// TableName sets the table name.
func (ExtensionModel) TableName() string { return "booking_extension_requests" }

// GormExtensionRepository implements allocation.ExtensionRepository using GORM.
type GormExtensionRepository struct {
	db *gorm.DB
}

// NewGormExtensionRepository creates a new GormExtensionRepository.
func NewGormExtensionRepository(db *gorm.DB) *GormExtensionRepository {
	return &GormExtensionRepository{db: db}
}

// FindByID returns an extension request by ID.
func (r *GormExtensionRepository) FindByID(ctx context.Context, id uuid.UUID) (*allocation.ExtensionRequest, error) {
	return r.findOne(database.Conn(ctx, r.db), id)
}

// FindByIDForUpdate returns an extension request and locks the row.
func (r *GormExtensionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*allocation.ExtensionRequest, error) {
	return r.findOne(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormExtensionRepository) findOne(q *gorm.DB, id uuid.UUID) (*allocation.ExtensionRequest, error) {
	var model ExtensionModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("BookingExtensionRequest", id.String())
		}
		return nil, fmt.Errorf("failed to find extension request: %w", err)
	}
	return toDomainExtension(&model)
}

// FindByBookingID returns all extension requests of a booking.
func (r *GormExtensionRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*allocation.ExtensionRequest, error) {
	var models []ExtensionModel
	if err := database.Conn(ctx, r.db).Where("booking_id = ?", bookingID).Order("request_date ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find extension requests: %w", err)
	}
	return toDomainExtensions(models)
}

// ListPending returns requests awaiting review, oldest first.
func (r *GormExtensionRepository) ListPending(ctx context.Context, page, limit int) ([]*allocation.ExtensionRequest, int64, error) {
	q := database.Conn(ctx, r.db).Model(&ExtensionModel{}).Where("status = ?", string(allocation.ExtensionPending))

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pending extensions: %w", err)
	}
	var models []ExtensionModel
	if err := q.Order("request_date ASC").Offset(offset(page, limit)).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list pending extensions: %w", err)
	}
	items, err := toDomainExtensions(models)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Save persists a new extension request.
func (r *GormExtensionRepository) Save(ctx context.Context, e *allocation.ExtensionRequest) error {
	if err := database.Conn(ctx, r.db).Create(toExtensionModel(e)).Error; err != nil {
		return fmt.Errorf("failed to save extension request: %w", err)
	}
	return nil
}

// Update records a review decision.
func (r *GormExtensionRepository) Update(ctx context.Context, e *allocation.ExtensionRequest) error {
	model := toExtensionModel(e)
	err := database.Conn(ctx, r.db).Model(&ExtensionModel{}).Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"reviewed_by":   model.ReviewedBy,
			"reviewed_at":   model.ReviewedAt,
			"auto_approved": model.AutoApproved,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update extension request: %w", err)
	}
	return nil
}

func toExtensionModel(e *allocation.ExtensionRequest) *ExtensionModel {
	return &ExtensionModel{
		ID:           e.ID(),
		BookingID:    e.BookingID(),
		RequestedBy:  e.RequestedBy(),
		PreviousEnd:  e.PreviousEnd(),
		NewEndDate:   e.NewEndDate(),
		Reason:       e.Reason(),
		Status:       string(e.Status()),
		RequestDate:  e.RequestDate(),
		ReviewedBy:   e.ReviewedBy(),
		ReviewedAt:   e.ReviewedAt(),
		AutoApproved: e.AutoApproved(),
	}
}

func toDomainExtension(m *ExtensionModel) (*allocation.ExtensionRequest, error) {
	status, err := allocation.ParseExtensionStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return allocation.ReconstructExtensionRequest(allocation.ReconstructExtensionParams{
		ID:           m.ID,
		BookingID:    m.BookingID,
		RequestedBy:  m.RequestedBy,
		PreviousEnd:  m.PreviousEnd,
		NewEndDate:   m.NewEndDate,
		Reason:       m.Reason,
		Status:       status,
		RequestDate:  m.RequestDate,
		ReviewedBy:   m.ReviewedBy,
		ReviewedAt:   m.ReviewedAt,
		AutoApproved: m.AutoApproved,
	}), nil
}

func toDomainExtensions(models []ExtensionModel) ([]*allocation.ExtensionRequest, error) {
	out := make([]*allocation.ExtensionRequest, len(models))
	for i := range models {
		e, err := toDomainExtension(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
