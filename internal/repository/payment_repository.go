package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/picktoride/service-rental/internal/domain/payment"
	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency    string          `gorm:"not null;size:3"`
	Method      string          `gorm:"not null;size:20"`
	Status      string          `gorm:"not null;size:20"`
	ExternalRef string          `gorm:"size:100"`
	PaidAt      *time.Time      `gorm:""`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName sets the table name.
func (PaymentModel) TableName() string { return "payments" }

// GormPaymentRepository implements payment.Repository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID returns a payment by ID.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model PaymentModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", id.String())
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return toDomainPayment(&model), nil
}

// FindLatestPaidByBooking returns the most recent paid payment of a booking.
func (r *GormPaymentRepository) FindLatestPaidByBooking(ctx context.Context, bookingID uuid.UUID) (*payment.Payment, error) {
	var model PaymentModel
	err := database.Conn(ctx, r.db).
		Where("booking_id = ? AND status = ?", bookingID, string(payment.StatusPaid)).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return toDomainPayment(&model), nil
}

// SumPaid totals the amounts of all paid payments.
func (r *GormPaymentRepository) SumPaid(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := database.Conn(ctx, r.db).Model(&PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", string(payment.StatusPaid)).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

// Save persists a new payment.
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	model := PaymentModel{
		ID:          p.ID(),
		BookingID:   p.BookingID(),
		Amount:      p.Amount(),
		Currency:    p.Currency(),
		Method:      string(p.Method()),
		Status:      string(p.Status()),
		ExternalRef: p.ExternalRef(),
		PaidAt:      p.PaidAt(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
	if err := database.Conn(ctx, r.db).Create(&model).Error; err != nil {
		return translateWriteError(err, "save payment", p.ID().String())
	}
	return nil
}

func toDomainPayment(m *PaymentModel) *payment.Payment {
	return payment.ReconstructPayment(m.ID, m.BookingID, m.Amount, m.Currency,
		payment.Method(m.Method), payment.PaymentStatus(m.Status), m.ExternalRef, m.PaidAt, m.CreatedAt, m.UpdatedAt)
}
