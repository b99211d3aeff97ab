package booking

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the date footprint an existing booking or driver schedule holds on a car or driver.
type Reservation struct {
	ID        uuid.UUID
	Start     time.Time
	End       time.Time
	Cancelled bool
}

// IsAvailable reports whether [start, end] is free of every non-cancelled reservation.
// It is a pure check over a snapshot; callers hold the resource lock while using the answer.
func IsAvailable(existing []Reservation, start, end time.Time) bool {
	_, found := FirstConflict(existing, start, end)
	return !found
}

// FirstConflict returns the first non-cancelled reservation overlapping [start, end].
func FirstConflict(existing []Reservation, start, end time.Time) (Reservation, bool) {
	requested := Period{Start: DateOf(start), End: DateOf(end)}
	for _, r := range existing {
		if r.Cancelled {
			continue
		}
		if requested.Overlaps(r.Start, r.End) {
			return r, true
		}
	}
	return Reservation{}, false
}

// ReservationsOf converts bookings into reservations, skipping the booking with id exclude.
func ReservationsOf(bookings []*Booking, exclude uuid.UUID) []Reservation {
	out := make([]Reservation, 0, len(bookings))
	for _, b := range bookings {
		if b.ID() == exclude {
			continue
		}
		out = append(out, b.Reservation())
	}
	return out
}
