package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

var (
	// DefaultDriverDailyRate is the per-day surcharge for a chauffeur.
	DefaultDriverDailyRate = decimal.NewFromInt(2000)
	// DefaultBookingFee is the flat fee added to every booking.
	DefaultBookingFee = decimal.NewFromInt(500)
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// ComputeTotal returns the total charge for the given parameters.
	ComputeTotal(params PricingParams) (decimal.Decimal, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	CarDailyRate   decimal.Decimal
	DriverRequired bool
	StartDate      time.Time
	EndDate        time.Time
}

// StandardPricingStrategy implements the daily-rate pricing used for every rental.
type StandardPricingStrategy struct {
	driverDailyRate decimal.Decimal
	bookingFee      decimal.Decimal
}

// NewStandardPricingStrategy creates a StandardPricingStrategy with the given surcharge and fee.
func NewStandardPricingStrategy(driverDailyRate, bookingFee decimal.Decimal) *StandardPricingStrategy {
	return &StandardPricingStrategy{
		driverDailyRate: driverDailyRate,
		bookingFee:      bookingFee,
	}
}

// ComputeTotal computes the total charge.
//
// Pricing formula:
//   - days = max(1, endDate - startDate) in calendar days
//   - daily = car daily rate + driver daily rate (when a driver is requested)
//   - total = daily * days + booking fee
func (s *StandardPricingStrategy) ComputeTotal(params PricingParams) (decimal.Decimal, error) {
	if !params.CarDailyRate.IsPositive() {
		return decimal.Zero, domain.NewFieldValidationError("daily_rate", "car daily rate must be positive")
	}

	daily := params.CarDailyRate
	if params.DriverRequired {
		daily = daily.Add(s.driverDailyRate)
	}

	days := decimal.NewFromInt(BillableDays(params.StartDate, params.EndDate))
	return daily.Mul(days).Add(s.bookingFee).Round(2), nil
}
