package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// Booking is the aggregate root for a car rental reservation.
type Booking struct {
	id             uuid.UUID
	bookingCode    string
	carID          uuid.UUID
	customerID     uuid.UUID
	driverID       *uuid.UUID
	period         Period
	status         BookingStatus
	totalAmount    decimal.Decimal
	currency       string
	driverRequired bool
	pickupLocation string

	paymentID   *uuid.UUID
	confirmedAt *time.Time
	cancelledAt *time.Time
	cancelledBy *uuid.UUID
	completedAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams holds the validated inputs of a new booking.
type NewBookingParams struct {
	BookingCode    string
	CarID          uuid.UUID
	CustomerID     uuid.UUID
	DriverID       *uuid.UUID
	Period         Period
	DriverRequired bool
	PickupLocation string
	TotalAmount    decimal.Decimal
	Currency       string
}

// Assignment is the car/driver/date selection shared by creation and staff edits.
type Assignment struct {
	CarID          uuid.UUID
	DriverID       *uuid.UUID
	Period         Period
	DriverRequired bool
	PickupLocation string
}

// Validate enforces the driver and pickup location rules and normalizes the location.
func (a *Assignment) Validate() error {
	if a.CarID == uuid.Nil {
		return domain.NewFieldValidationError("car_id", "please select a car")
	}
	if a.DriverID != nil && *a.DriverID == uuid.Nil {
		a.DriverID = nil
	}
	if a.DriverID != nil && !a.DriverRequired {
		return domain.NewFieldValidationError("driver_id", "a driver can only be assigned when a driver is requested")
	}
	a.PickupLocation = strings.TrimSpace(a.PickupLocation)
	if a.DriverRequired && a.PickupLocation == "" {
		return domain.NewFieldValidationError("pickup_location", "pickup location is required when a driver is requested")
	}
	if !a.DriverRequired {
		a.PickupLocation = ""
	}
	return nil
}

// NewBooking creates a new Booking in pending status. today is the current calendar date.
func NewBooking(params NewBookingParams, today time.Time) (*Booking, error) {
	if params.CustomerID == uuid.Nil {
		return nil, domain.NewFieldValidationError("customer_id", "customer is required")
	}
	assignment := Assignment{
		CarID:          params.CarID,
		DriverID:       params.DriverID,
		Period:         params.Period,
		DriverRequired: params.DriverRequired,
		PickupLocation: params.PickupLocation,
	}
	if err := assignment.Validate(); err != nil {
		return nil, err
	}
	if params.Period.Start.Before(DateOf(today)) {
		return nil, domain.NewFieldValidationError("start_date", "start date cannot be in the past")
	}
	if !IsWellFormedBookingCode(params.BookingCode) {
		return nil, domain.NewFieldValidationError("booking_code", "booking code is malformed")
	}
	if params.TotalAmount.IsNegative() {
		return nil, domain.NewFieldValidationError("total_amount", "total amount cannot be negative")
	}

	now := time.Now().UTC()
	return &Booking{
		id:             uuid.New(),
		bookingCode:    params.BookingCode,
		carID:          assignment.CarID,
		customerID:     params.CustomerID,
		driverID:       assignment.DriverID,
		period:         assignment.Period,
		status:         StatusPending,
		totalAmount:    params.TotalAmount,
		currency:       params.Currency,
		driverRequired: assignment.DriverRequired,
		pickupLocation: assignment.PickupLocation,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructParams carries persisted booking state.
type ReconstructParams struct {
	ID             uuid.UUID
	BookingCode    string
	CarID          uuid.UUID
	CustomerID     uuid.UUID
	DriverID       *uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	Status         BookingStatus
	TotalAmount    decimal.Decimal
	Currency       string
	DriverRequired bool
	PickupLocation string
	PaymentID      *uuid.UUID
	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
	CancelledBy    *uuid.UUID
	CompletedAt    *time.Time
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(p ReconstructParams) *Booking {
	return &Booking{
		id:             p.ID,
		bookingCode:    p.BookingCode,
		carID:          p.CarID,
		customerID:     p.CustomerID,
		driverID:       p.DriverID,
		period:         Period{Start: DateOf(p.StartDate), End: DateOf(p.EndDate)},
		status:         p.Status,
		totalAmount:    p.TotalAmount,
		currency:       p.Currency,
		driverRequired: p.DriverRequired,
		pickupLocation: p.PickupLocation,
		paymentID:      p.PaymentID,
		confirmedAt:    p.ConfirmedAt,
		cancelledAt:    p.CancelledAt,
		cancelledBy:    p.CancelledBy,
		completedAt:    p.CompletedAt,
		version:        p.Version,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingCode returns the 6-character code presented at handover.
func (b *Booking) BookingCode() string { return b.bookingCode }

// CarID returns the reserved car.
func (b *Booking) CarID() uuid.UUID { return b.carID }

// CustomerID returns the customer who owns the booking.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// DriverID returns the assigned driver, or nil.
func (b *Booking) DriverID() *uuid.UUID { return b.driverID }

// Period returns the reserved dates.
func (b *Booking) Period() Period { return b.period }

// StartDate returns the first rental day.
func (b *Booking) StartDate() time.Time { return b.period.Start }

// EndDate returns the last rental day.
func (b *Booking) EndDate() time.Time { return b.period.End }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalAmount returns the charge for the booking.
func (b *Booking) TotalAmount() decimal.Decimal { return b.totalAmount }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// DriverRequired reports whether a chauffeur was requested.
func (b *Booking) DriverRequired() bool { return b.driverRequired }

// PickupLocation returns where the driver collects the customer.
func (b *Booking) PickupLocation() string { return b.pickupLocation }

// PaymentID returns the payment that confirmed the booking.
func (b *Booking) PaymentID() *uuid.UUID { return b.paymentID }

// ConfirmedAt returns when payment confirmed the booking.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// CancelledAt returns when the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelledBy returns who cancelled the booking.
func (b *Booking) CancelledBy() *uuid.UUID { return b.cancelledBy }

// CompletedAt returns when the car was returned.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Reservation returns the booking's footprint for availability checks.
func (b *Booking) Reservation() Reservation {
	return Reservation{
		ID:        b.id,
		Start:     b.period.Start,
		End:       b.period.End,
		Cancelled: b.status == StatusCancelled,
	}
}

// IsOwnedBy reports whether userID is the booking's customer.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool { return b.customerID == userID }

// MatchesCode compares a presented code case-insensitively.
func (b *Booking) MatchesCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), b.bookingCode)
}

// --- Behavior ---

// Confirm transitions pending to booked after payment. Re-confirming with the same payment
// reports changed=false; a different payment yields an already-confirmed error.
func (b *Booking) Confirm(paymentID uuid.UUID) (changed bool, err error) {
	if b.status == StatusBooked {
		if b.paymentID != nil && *b.paymentID == paymentID {
			return false, nil
		}
		return false, domain.NewAlreadyConfirmedError(b.id.String())
	}
	if !b.status.CanTransitionTo(StatusBooked) {
		return false, domain.NewInvalidStateError(string(b.status), string(StatusBooked))
	}
	now := time.Now().UTC()
	b.status = StatusBooked
	b.paymentID = &paymentID
	b.confirmedAt = &now
	b.updatedAt = now
	return true, nil
}

// Cancel transitions the booking to cancelled from pending or booked.
func (b *Booking) Cancel(actorID uuid.UUID) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.cancelledBy = &actorID
	b.updatedAt = now
	return nil
}

// Complete transitions the booking from booked to completed when the car comes back.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Amend replaces the car, driver and dates of an active booking and sets the new amount.
func (b *Booking) Amend(a Assignment, totalAmount decimal.Decimal) error {
	if !b.status.IsActive() {
		return domain.NewInvalidStateError(string(b.status), "edited")
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if totalAmount.IsNegative() {
		return domain.NewFieldValidationError("total_amount", "total amount cannot be negative")
	}
	b.carID = a.CarID
	b.driverID = a.DriverID
	b.period = a.Period
	b.driverRequired = a.DriverRequired
	b.pickupLocation = a.PickupLocation
	b.totalAmount = totalAmount
	b.updatedAt = time.Now().UTC()
	return nil
}

// CheckExtension reports whether the booking may be extended to newEnd.
func (b *Booking) CheckExtension(newEnd time.Time) error {
	if !b.status.IsActive() {
		return domain.NewInvalidStateError(string(b.status), "extended")
	}
	newEnd = DateOf(newEnd)
	if !newEnd.After(b.period.End) {
		return domain.NewFieldValidationError("new_end_date", "new end date must be after the current end date")
	}
	return checkLength(b.period.Start, newEnd, "new_end_date")
}

// ExtendTo moves the end date of an active booking later.
func (b *Booking) ExtendTo(newEnd time.Time) error {
	if err := b.CheckExtension(newEnd); err != nil {
		return err
	}
	b.period.End = DateOf(newEnd)
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
