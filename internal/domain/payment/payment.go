package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// PaymentStatus is the state of a payment.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "Pending"
	StatusPaid      PaymentStatus = "Paid"
	StatusCancelled PaymentStatus = "Cancelled"
)

// Method is how the customer paid.
type Method string

const (
	MethodCard   Method = "Card"
	MethodCash   Method = "Cash"
	MethodOnline Method = "Online"
)

// ParseMethod converts user input to a Method, defaulting to card.
func ParseMethod(s string) (Method, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MethodCard, nil
	}
	for _, m := range []Method{MethodCard, MethodCash, MethodOnline} {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", domain.NewFieldValidationError("method", "unsupported payment method: "+s)
}

// Payment records money received against a booking.
type Payment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	amount      decimal.Decimal
	currency    string
	method      Method
	status      PaymentStatus
	externalRef string
	paidAt      *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewPaidPayment records a successful payment. id may be supplied by an external gateway.
func NewPaidPayment(id, bookingID uuid.UUID, amount decimal.Decimal, currency string, method Method, externalRef string) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewFieldValidationError("booking_id", "booking is required")
	}
	if amount.IsNegative() {
		return nil, domain.NewFieldValidationError("amount", "amount cannot be negative")
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	return &Payment{
		id:          id,
		bookingID:   bookingID,
		amount:      amount,
		currency:    currency,
		method:      method,
		status:      StatusPaid,
		externalRef: externalRef,
		paidAt:      &now,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructPayment rebuilds a Payment from persistence.
func ReconstructPayment(
	id, bookingID uuid.UUID,
	amount decimal.Decimal,
	currency string,
	method Method,
	status PaymentStatus,
	externalRef string,
	paidAt *time.Time,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:          id,
		bookingID:   bookingID,
		amount:      amount,
		currency:    currency,
		method:      method,
		status:      status,
		externalRef: externalRef,
		paidAt:      paidAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (p *Payment) ID() uuid.UUID           { return p.id }
func (p *Payment) BookingID() uuid.UUID    { return p.bookingID }
func (p *Payment) Amount() decimal.Decimal { return p.amount }
func (p *Payment) Currency() string        { return p.currency }
func (p *Payment) Method() Method          { return p.method }
func (p *Payment) Status() PaymentStatus   { return p.status }
func (p *Payment) ExternalRef() string     { return p.externalRef }
func (p *Payment) PaidAt() *time.Time      { return p.paidAt }
func (p *Payment) CreatedAt() time.Time    { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time    { return p.updatedAt }

// IsPaid reports whether the payment succeeded.
func (p *Payment) IsPaid() bool { return p.status == StatusPaid }
