package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindLatestPaidByBooking returns the most recent successful payment, or a not-found error.
	FindLatestPaidByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	// SumPaid totals every successful payment.
	SumPaid(ctx context.Context) (decimal.Decimal, error)
	Save(ctx context.Context, p *Payment) error
}
