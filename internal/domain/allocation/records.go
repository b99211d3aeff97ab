package allocation

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// HandOverRecord logs the car leaving the yard with the customer. Append-only.
type HandOverRecord struct {
	id           uuid.UUID
	bookingID    uuid.UUID
	userID       uuid.UUID
	handedOverAt time.Time
}

// NewHandOverRecord records a handover performed by userID.
func NewHandOverRecord(bookingID, userID uuid.UUID) *HandOverRecord {
	return &HandOverRecord{
		id:           uuid.New(),
		bookingID:    bookingID,
		userID:       userID,
		handedOverAt: time.Now().UTC(),
	}
}

// ReconstructHandOverRecord rebuilds a HandOverRecord from persistence.
func ReconstructHandOverRecord(id, bookingID, userID uuid.UUID, handedOverAt time.Time) *HandOverRecord {
	return &HandOverRecord{id: id, bookingID: bookingID, userID: userID, handedOverAt: handedOverAt}
}

// Getters.
func (r *HandOverRecord) ID() uuid.UUID           { return r.id }
func (r *HandOverRecord) BookingID() uuid.UUID    { return r.bookingID }
func (r *HandOverRecord) UserID() uuid.UUID       { return r.userID }
func (r *HandOverRecord) HandedOverAt() time.Time { return r.handedOverAt }

// ReturnRecord logs the car coming back. Append-only.
type ReturnRecord struct {
	id           uuid.UUID
	bookingID    uuid.UUID
	userID       uuid.UUID
	returnedAt   time.Time
	carCondition string
	extraCharge  decimal.Decimal
}

// NewReturnRecord validates and records a return.
func NewReturnRecord(bookingID, userID uuid.UUID, carCondition string, extraCharge decimal.Decimal) (*ReturnRecord, error) {
	carCondition = strings.TrimSpace(carCondition)
	if carCondition == "" {
		return nil, domain.NewFieldValidationError("car_condition", "car condition is required")
	}
	if extraCharge.IsNegative() {
		return nil, domain.NewFieldValidationError("extra_charge", "extra charge cannot be negative")
	}
	return &ReturnRecord{
		id:           uuid.New(),
		bookingID:    bookingID,
		userID:       userID,
		returnedAt:   time.Now().UTC(),
		carCondition: carCondition,
		extraCharge:  extraCharge.Round(2),
	}, nil
}

// ReconstructReturnRecord rebuilds a ReturnRecord from persistence.
func ReconstructReturnRecord(id, bookingID, userID uuid.UUID, returnedAt time.Time, carCondition string, extraCharge decimal.Decimal) *ReturnRecord {
	return &ReturnRecord{
		id:           id,
		bookingID:    bookingID,
		userID:       userID,
		returnedAt:   returnedAt,
		carCondition: carCondition,
		extraCharge:  extraCharge,
	}
}

// Getters.
func (r *ReturnRecord) ID() uuid.UUID                { return r.id }
func (r *ReturnRecord) BookingID() uuid.UUID         { return r.bookingID }
func (r *ReturnRecord) UserID() uuid.UUID            { return r.userID }
func (r *ReturnRecord) ReturnedAt() time.Time        { return r.returnedAt }
func (r *ReturnRecord) CarCondition() string         { return r.carCondition }
func (r *ReturnRecord) ExtraCharge() decimal.Decimal { return r.extraCharge }
