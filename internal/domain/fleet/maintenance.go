package fleet

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// MaintenanceStatus tracks a maintenance job.
type MaintenanceStatus string

const (
	MaintenanceInProgress MaintenanceStatus = "InProgress"
	MaintenanceCompleted  MaintenanceStatus = "Completed"
)

// Maintenance is a service job that takes a car off the road.
type Maintenance struct {
	id              uuid.UUID
	carID           uuid.UUID
	reportedBy      uuid.UUID
	maintenanceType string
	description     string
	startDate       time.Time
	endDate         *time.Time
	cost            decimal.Decimal
	status          MaintenanceStatus
	completedAt     *time.Time
	createdAt       time.Time
}

// NewMaintenance opens a maintenance job for carID.
func NewMaintenance(carID, reportedBy uuid.UUID, maintenanceType, description string, startDate time.Time, endDate *time.Time, cost decimal.Decimal) (*Maintenance, error) {
	if carID == uuid.Nil {
		return nil, domain.NewFieldValidationError("car_id", "car is required")
	}
	if strings.TrimSpace(maintenanceType) == "" {
		return nil, domain.NewFieldValidationError("type", "maintenance type is required")
	}
	if cost.IsNegative() {
		return nil, domain.NewFieldValidationError("cost", "cost cannot be negative")
	}
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, domain.NewFieldValidationError("end_date", "end date must not be before start date")
	}
	return &Maintenance{
		id:              uuid.New(),
		carID:           carID,
		reportedBy:      reportedBy,
		maintenanceType: strings.TrimSpace(maintenanceType),
		description:     description,
		startDate:       startDate,
		endDate:         endDate,
		cost:            cost,
		status:          MaintenanceInProgress,
		createdAt:       time.Now().UTC(),
	}, nil
}

// ReconstructMaintenance rebuilds a Maintenance from persistence.
func ReconstructMaintenance(
	id, carID, reportedBy uuid.UUID,
	maintenanceType, description string,
	startDate time.Time,
	endDate *time.Time,
	cost decimal.Decimal,
	status MaintenanceStatus,
	completedAt *time.Time,
	createdAt time.Time,
) *Maintenance {
	return &Maintenance{
		id:              id,
		carID:           carID,
		reportedBy:      reportedBy,
		maintenanceType: maintenanceType,
		description:     description,
		startDate:       startDate,
		endDate:         endDate,
		cost:            cost,
		status:          status,
		completedAt:     completedAt,
		createdAt:       createdAt,
	}
}

func (m *Maintenance) ID() uuid.UUID             { return m.id }
func (m *Maintenance) CarID() uuid.UUID          { return m.carID }
func (m *Maintenance) ReportedBy() uuid.UUID     { return m.reportedBy }
func (m *Maintenance) Type() string              { return m.maintenanceType }
func (m *Maintenance) Description() string       { return m.description }
func (m *Maintenance) StartDate() time.Time      { return m.startDate }
func (m *Maintenance) EndDate() *time.Time       { return m.endDate }
func (m *Maintenance) Cost() decimal.Decimal     { return m.cost }
func (m *Maintenance) Status() MaintenanceStatus { return m.status }
func (m *Maintenance) CompletedAt() *time.Time   { return m.completedAt }
func (m *Maintenance) CreatedAt() time.Time      { return m.createdAt }

// Complete closes the job. A final cost, when given, replaces the estimate.
func (m *Maintenance) Complete(finalCost *decimal.Decimal) error {
	if m.status != MaintenanceInProgress {
		return domain.NewInvalidStateError(string(m.status), string(MaintenanceCompleted))
	}
	if finalCost != nil {
		if finalCost.IsNegative() {
			return domain.NewFieldValidationError("cost", "cost cannot be negative")
		}
		m.cost = *finalCost
	}
	now := time.Now().UTC()
	m.status = MaintenanceCompleted
	m.completedAt = &now
	if m.endDate == nil {
		m.endDate = &now
	}
	return nil
}
