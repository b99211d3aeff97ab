package fleet

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// CarStatus is the operational state of a car.
type CarStatus string

const (
	CarStatusAvailable   CarStatus = "Available"
	CarStatusOnDuty      CarStatus = "OnDuty"
	CarStatusMaintenance CarStatus = "Maintenance"
)

// IsValid returns true if the status is recognized.
func (s CarStatus) IsValid() bool {
	switch s {
	case CarStatusAvailable, CarStatusOnDuty, CarStatusMaintenance:
		return true
	}
	return false
}

// ParseCarStatus accepts the stored form and the spaced variants older records use.
func ParseCarStatus(s string) (CarStatus, error) {
	normalized := CarStatus(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, known := range []CarStatus{CarStatusAvailable, CarStatusOnDuty, CarStatusMaintenance} {
		if strings.EqualFold(string(normalized), string(known)) {
			return known, nil
		}
	}
	return "", domain.NewValidationError("invalid car status: " + s)
}

// Car is the aggregate root for a rentable vehicle.
type Car struct {
	id                 uuid.UUID
	name               string
	brand              string
	registrationNumber string
	category           string
	dailyRate          decimal.Decimal
	status             CarStatus
	active             bool
	version            int64
	createdAt          time.Time
	updatedAt          time.Time
}

// NewCar creates an active, available car with validated fields.
func NewCar(name, brand, registrationNumber, category string, dailyRate decimal.Decimal) (*Car, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewFieldValidationError("name", "car name is required")
	}
	if strings.TrimSpace(registrationNumber) == "" {
		return nil, domain.NewFieldValidationError("registration_number", "registration number is required")
	}
	if !dailyRate.IsPositive() {
		return nil, domain.NewFieldValidationError("daily_rate", "daily rate must be positive")
	}

	now := time.Now().UTC()
	return &Car{
		id:                 uuid.New(),
		name:               strings.TrimSpace(name),
		brand:              strings.TrimSpace(brand),
		registrationNumber: strings.ToUpper(strings.TrimSpace(registrationNumber)),
		category:           category,
		dailyRate:          dailyRate,
		status:             CarStatusAvailable,
		active:             true,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructCar rebuilds a Car from persistence data (no validation).
func ReconstructCar(
	id uuid.UUID,
	name, brand, registrationNumber, category string,
	dailyRate decimal.Decimal,
	status CarStatus,
	active bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Car {
	return &Car{
		id:                 id,
		name:               name,
		brand:              brand,
		registrationNumber: registrationNumber,
		category:           category,
		dailyRate:          dailyRate,
		status:             status,
		active:             active,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

func (c *Car) ID() uuid.UUID                { return c.id }
func (c *Car) Name() string                 { return c.name }
func (c *Car) Brand() string                { return c.brand }
func (c *Car) RegistrationNumber() string   { return c.registrationNumber }
func (c *Car) Category() string             { return c.category }
func (c *Car) DailyRate() decimal.Decimal   { return c.dailyRate }
func (c *Car) Status() CarStatus            { return c.status }
func (c *Car) IsActive() bool               { return c.active }
func (c *Car) Version() int64               { return c.version }
func (c *Car) CreatedAt() time.Time         { return c.createdAt }
func (c *Car) UpdatedAt() time.Time         { return c.updatedAt }

// --- Behavior ---

// IsBookable reports whether the car can take new bookings.
func (c *Car) IsBookable() bool {
	return c.active
}

// HandOut marks the car as out with a customer.
func (c *Car) HandOut() {
	c.setStatus(CarStatusOnDuty)
}

// MarkReturned puts the car back into the pool. The recorded condition does not gate this.
func (c *Car) MarkReturned() {
	c.setStatus(CarStatusAvailable)
}

// SendToMaintenance takes an available car off the road. A car already under
// maintenance takes no second job until the first is completed.
func (c *Car) SendToMaintenance() error {
	if c.status != CarStatusAvailable {
		return domain.NewInvalidStateError(string(c.status), string(CarStatusMaintenance))
	}
	c.setStatus(CarStatusMaintenance)
	return nil
}

// FinishMaintenance returns a car under maintenance to service and reports whether
// its status changed.
func (c *Car) FinishMaintenance() bool {
	if c.status != CarStatusMaintenance {
		return false
	}
	c.setStatus(CarStatusAvailable)
	return true
}

// Deactivate withdraws the car from the catalog.
func (c *Car) Deactivate() {
	c.active = false
	c.version++
	c.updatedAt = time.Now().UTC()
}

func (c *Car) setStatus(s CarStatus) {
	c.status = s
	c.version++
	c.updatedAt = time.Now().UTC()
}
