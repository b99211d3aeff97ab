package application

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// resources holds the availability and driver bookkeeping shared by the booking and
// allocation use cases. Every method expects to run inside a transaction. Row locks are
// taken in the order booking, car, driver.
type resources struct {
	stores Stores
}

// lockBookableCar locks the car row and checks it can take bookings.
func (r resources) lockBookableCar(ctx context.Context, carID uuid.UUID) (*fleet.Car, error) {
	car, err := r.stores.Cars.FindByIDForUpdate(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !car.IsBookable() {
		return nil, domain.NewFieldValidationError("car_id", "this car is not offered for rent")
	}
	return car, nil
}

// lockDrivers locks the given staff rows in a stable order and returns them by id.
func (r resources) lockDrivers(ctx context.Context, ids ...*uuid.UUID) (map[uuid.UUID]*fleet.Staff, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		unique = append(unique, *id)
	}
	// Sorted so that two transactions touching the same pair of drivers cannot deadlock.
	slices.SortFunc(unique, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	out := make(map[uuid.UUID]*fleet.Staff, len(unique))
	for _, id := range unique {
		staff, err := r.stores.Staff.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = staff
	}
	return out, nil
}

// ensureNotHandedOver rejects changes to a booking whose car is already out with the
// customer. Such a rental can only be closed through Return.
func (r resources) ensureNotHandedOver(ctx context.Context, bk *booking.Booking, target string) error {
	records, err := r.stores.HandOvers.FindByBookingID(ctx, bk.ID())
	if err != nil {
		return fmt.Errorf("failed to load handover records: %w", err)
	}
	if len(records) > 0 {
		return domain.NewInvalidStateError("handed_over", target)
	}
	return nil
}

// ensureCarFree fails with ResourceUnavailable when another booking holds the car during [start, end].
func (r resources) ensureCarFree(ctx context.Context, carID uuid.UUID, start, end time.Time, excludeBookingID uuid.UUID) error {
	existing, err := r.stores.Bookings.FindNonCancelledByCar(ctx, carID)
	if err != nil {
		return fmt.Errorf("failed to load car bookings: %w", err)
	}
	if !booking.IsAvailable(booking.ReservationsOf(existing, excludeBookingID), start, end) {
		return domain.NewResourceUnavailableError("car", carID.String())
	}
	return nil
}

// ensureDriverFree fails with ResourceUnavailable when the driver has a booking or schedule during [start, end].
func (r resources) ensureDriverFree(ctx context.Context, driverID uuid.UUID, start, end time.Time, excludeBookingID uuid.UUID) error {
	bookings, err := r.stores.Bookings.FindNonCancelledByDriver(ctx, driverID)
	if err != nil {
		return fmt.Errorf("failed to load driver bookings: %w", err)
	}
	schedules, err := r.stores.Schedules.FindByStaffID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("failed to load driver schedules: %w", err)
	}
	if !booking.IsAvailable(fleet.DriverReservations(bookings, schedules, excludeBookingID), start, end) {
		return domain.NewResourceUnavailableError("driver", driverID.String())
	}
	return nil
}

// assignDriver commits a locked driver to a confirmed booking: it writes or moves the
// booking's schedule and puts the driver on duty.
func (r resources) assignDriver(ctx context.Context, driver *fleet.Staff, bk *booking.Booking) error {
	schedules, err := r.stores.Schedules.FindByBookingID(ctx, bk.ID())
	if err != nil {
		return fmt.Errorf("failed to load booking schedules: %w", err)
	}
	switch {
	case len(schedules) == 0:
		bookingID := bk.ID()
		schedule, err := fleet.NewDriverSchedule(driver.ID(), bk.Period(), &bookingID)
		if err != nil {
			return err
		}
		if err := r.stores.Schedules.Save(ctx, schedule); err != nil {
			return err
		}
	default:
		for _, s := range schedules {
			s.Reschedule(bk.Period())
			if err := r.stores.Schedules.Update(ctx, s); err != nil {
				return err
			}
		}
	}

	if driver.Availability() == fleet.AvailabilityOnDuty || !driver.CanDrive() {
		return nil
	}
	if err := driver.AssignDuty(); err != nil {
		return err
	}
	return r.stores.Staff.Update(ctx, driver)
}

// rescheduleDriver moves the schedules of a booking to its current period.
func (r resources) rescheduleDriver(ctx context.Context, bk *booking.Booking) error {
	schedules, err := r.stores.Schedules.FindByBookingID(ctx, bk.ID())
	if err != nil {
		return fmt.Errorf("failed to load booking schedules: %w", err)
	}
	for _, s := range schedules {
		s.Reschedule(bk.Period())
		if err := r.stores.Schedules.Update(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// releaseDriver drops the schedules bk holds on the driver when dropSchedules is set, and returns
// a locked driver to Available once no other active booking references them.
func (r resources) releaseDriver(ctx context.Context, driver *fleet.Staff, bk *booking.Booking, dropSchedules bool) error {
	if dropSchedules {
		if err := r.stores.Schedules.DeleteByBookingID(ctx, bk.ID()); err != nil {
			return err
		}
	}
	others, err := r.stores.Bookings.CountActiveByDriver(ctx, driver.ID(), bk.ID())
	if err != nil {
		return fmt.Errorf("failed to count driver bookings: %w", err)
	}
	if others > 0 {
		return nil
	}
	if !driver.Release() {
		return nil
	}
	return r.stores.Staff.Update(ctx, driver)
}
