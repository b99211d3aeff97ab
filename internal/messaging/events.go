// Package messaging holds the Kafka topics and event payloads exchanged with other services.
package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topics.
const (
	TopicBookingEvents = "rental.booking.events"
	TopicPaymentEvents = "rental.payment.events"
)

// Event source identifying this service in CloudEvents.
const Source = "service-rental"

// Booking event types.
const (
	BookingCreated            = "rental.booking.created"
	BookingConfirmed          = "rental.booking.confirmed"
	BookingCancelled          = "rental.booking.cancelled"
	BookingEdited             = "rental.booking.edited"
	BookingHandedOver         = "rental.booking.handed_over"
	BookingReturned           = "rental.booking.returned"
	BookingExtensionRequested = "rental.booking.extension_requested"
	BookingExtensionReviewed  = "rental.booking.extension_reviewed"
)

// Payment event types.
const (
	PaymentSucceeded = "rental.payment.succeeded"
)

// BookingEvent describes a booking after a lifecycle transition.
type BookingEvent struct {
	BookingID   uuid.UUID       `json:"booking_id"`
	BookingCode string          `json:"booking_code"`
	CarID       uuid.UUID       `json:"car_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	DriverID    *uuid.UUID      `json:"driver_id,omitempty"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	PaymentID   *uuid.UUID      `json:"payment_id,omitempty"`
	ActorID     *uuid.UUID      `json:"actor_id,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// HandOverEvent is published when a car leaves with the customer.
type HandOverEvent struct {
	BookingID    uuid.UUID `json:"booking_id"`
	BookingCode  string    `json:"booking_code"`
	CarID        uuid.UUID `json:"car_id"`
	HandOverID   uuid.UUID `json:"handover_id"`
	HandedOverBy uuid.UUID `json:"handed_over_by"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ReturnEvent is published when a car comes back.
type ReturnEvent struct {
	BookingID    uuid.UUID       `json:"booking_id"`
	BookingCode  string          `json:"booking_code"`
	CarID        uuid.UUID       `json:"car_id"`
	ReturnID     uuid.UUID       `json:"return_id"`
	CarCondition string          `json:"car_condition"`
	ExtraCharge  decimal.Decimal `json:"extra_charge"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// ExtensionEvent is published when an extension is requested or reviewed.
type ExtensionEvent struct {
	ExtensionID  uuid.UUID  `json:"extension_id"`
	BookingID    uuid.UUID  `json:"booking_id"`
	NewEndDate   string     `json:"new_end_date"`
	Status       string     `json:"status"`
	AutoApproved bool       `json:"auto_approved"`
	ReviewedBy   *uuid.UUID `json:"reviewed_by,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// PaymentSucceededEvent is emitted by the payment gateway once a charge clears.
type PaymentSucceededEvent struct {
	PaymentID   uuid.UUID       `json:"payment_id"`
	BookingID   uuid.UUID       `json:"booking_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Method      string          `json:"method"`
	ExternalRef string          `json:"external_ref"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// DateLayout formats calendar dates in event payloads.
const DateLayout = "2006-01-02"
