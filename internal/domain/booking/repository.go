package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate loads the booking and holds its row lock until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByCode retrieves a booking by its booking code.
	FindByCode(ctx context.Context, code string) (*Booking, error)

	// ExistsByCode reports whether a booking code is already taken.
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// FindNonCancelledByCar returns every booking on the car that is not cancelled.
	FindNonCancelledByCar(ctx context.Context, carID uuid.UUID) ([]*Booking, error)

	// FindNonCancelledByDriver returns every booking assigned to the driver that is not cancelled.
	FindNonCancelledByDriver(ctx context.Context, driverID uuid.UUID) ([]*Booking, error)

	// CountActiveByDriver counts pending or booked bookings for the driver, excluding one booking.
	CountActiveByDriver(ctx context.Context, driverID, excludeBookingID uuid.UUID) (int64, error)

	// FindByCustomerID retrieves bookings belonging to a customer with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination, optionally filtered by status (admin).
	ListAll(ctx context.Context, status *BookingStatus, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// CountCreatedPerDay counts bookings created in [from, to), keyed by UTC calendar date.
	CountCreatedPerDay(ctx context.Context, from, to time.Time) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
