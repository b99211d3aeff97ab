package fleet

import (
	"context"

	"github.com/google/uuid"
)

// CarRepository defines persistence operations for cars.
type CarRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Car, error)
	// FindByIDForUpdate loads the car and holds its row lock until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Car, error)
	FindAll(ctx context.Context, activeOnly bool, page, limit int) ([]*Car, int64, error)
	// CountAvailable counts active cars that are currently in the pool.
	CountAvailable(ctx context.Context) (int64, error)
	Save(ctx context.Context, car *Car) error
	Update(ctx context.Context, car *Car) error
}

// StaffRepository defines persistence operations for staff and drivers.
type StaffRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	// FindByIDForUpdate loads the staff member and holds its row lock until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Staff, error)
	FindDrivers(ctx context.Context) ([]*Staff, error)
	CountDriversByAvailability(ctx context.Context, availability Availability) (int64, error)
	// ListUserIDs returns the user accounts of every staff member.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, staff *Staff) error
	Update(ctx context.Context, staff *Staff) error
}

// DriverScheduleRepository defines persistence operations for driver schedules.
type DriverScheduleRepository interface {
	FindByStaffID(ctx context.Context, staffID uuid.UUID) ([]*DriverSchedule, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*DriverSchedule, error)
	Save(ctx context.Context, schedule *DriverSchedule) error
	Update(ctx context.Context, schedule *DriverSchedule) error
	DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error
}

// MaintenanceRepository defines persistence operations for maintenance jobs.
type MaintenanceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Maintenance, error)
	FindByCarID(ctx context.Context, carID uuid.UUID) ([]*Maintenance, error)
	Save(ctx context.Context, m *Maintenance) error
	Update(ctx context.Context, m *Maintenance) error
}
