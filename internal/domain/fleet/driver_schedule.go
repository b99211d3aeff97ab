package fleet

import (
	"time"

	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// DriverSchedule is a date range a driver is committed to, optionally tied to a booking.
type DriverSchedule struct {
	id        uuid.UUID
	staffID   uuid.UUID
	period    booking.Period
	bookingID *uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

// NewDriverSchedule commits staffID for period.
func NewDriverSchedule(staffID uuid.UUID, period booking.Period, bookingID *uuid.UUID) (*DriverSchedule, error) {
	if staffID == uuid.Nil {
		return nil, domain.NewFieldValidationError("staff_id", "driver is required")
	}
	if period.End.Before(period.Start) {
		return nil, domain.NewFieldValidationError("end_date", "end date must not be before start date")
	}
	now := time.Now().UTC()
	return &DriverSchedule{
		id:        uuid.New(),
		staffID:   staffID,
		period:    period,
		bookingID: bookingID,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructDriverSchedule rebuilds a DriverSchedule from persistence.
func ReconstructDriverSchedule(id, staffID uuid.UUID, start, end time.Time, bookingID *uuid.UUID, createdAt, updatedAt time.Time) *DriverSchedule {
	return &DriverSchedule{
		id:        id,
		staffID:   staffID,
		period:    booking.Period{Start: booking.DateOf(start), End: booking.DateOf(end)},
		bookingID: bookingID,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (d *DriverSchedule) ID() uuid.UUID          { return d.id }
func (d *DriverSchedule) StaffID() uuid.UUID     { return d.staffID }
func (d *DriverSchedule) Period() booking.Period { return d.period }
func (d *DriverSchedule) BookingID() *uuid.UUID  { return d.bookingID }
func (d *DriverSchedule) CreatedAt() time.Time   { return d.createdAt }
func (d *DriverSchedule) UpdatedAt() time.Time   { return d.updatedAt }

// BelongsTo reports whether the schedule was created for bookingID.
func (d *DriverSchedule) BelongsTo(bookingID uuid.UUID) bool {
	return d.bookingID != nil && *d.bookingID == bookingID
}

// Reschedule moves the schedule to a new period.
func (d *DriverSchedule) Reschedule(period booking.Period) {
	d.period = period
	d.updatedAt = time.Now().UTC()
}

// Reservation returns the schedule's footprint for driver availability checks.
func (d *DriverSchedule) Reservation() booking.Reservation {
	return booking.Reservation{ID: d.id, Start: d.period.Start, End: d.period.End}
}

// DriverReservations merges a driver's bookings and schedules into one snapshot,
// leaving out excludeBookingID and any schedule created for it.
func DriverReservations(bookings []*booking.Booking, schedules []*DriverSchedule, excludeBookingID uuid.UUID) []booking.Reservation {
	out := booking.ReservationsOf(bookings, excludeBookingID)
	for _, s := range schedules {
		if s.BelongsTo(excludeBookingID) {
			continue
		}
		out = append(out, s.Reservation())
	}
	return out
}
