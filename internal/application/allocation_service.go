package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/picktoride/service-rental/internal/domain/allocation"
	"github.com/picktoride/service-rental/internal/domain/audit"
	bookingDomain "github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/messaging"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// AllocationService handles the physical side of a rental: handover, return and extensions.
type AllocationService struct {
	tx      TxManager
	stores  Stores
	res     resources
	effects *SideEffects
	logger  *zap.Logger
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(tx TxManager, stores Stores, effects *SideEffects, logger *zap.Logger) *AllocationService {
	return &AllocationService{
		tx:      tx,
		stores:  stores,
		res:     resources{stores: stores},
		effects: effects,
		logger:  logger,
	}
}

// HandOver releases the car to the customer after checking the presented booking code.
func (s *AllocationService) HandOver(ctx context.Context, bookingID uuid.UUID, actor Actor, req HandOverRequest) (*HandOverDTO, error) {
	if !actor.IsStaff() {
		return nil, domain.NewForbiddenError("only staff can hand over cars")
	}

	var (
		bk     *bookingDomain.Booking
		record *allocation.HandOverRecord
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.Status() != bookingDomain.StatusBooked {
			return domain.NewInvalidStateError(bk.Status().String(), "handed_over")
		}
		if !bk.MatchesCode(req.BookingCode) {
			return domain.NewCodeMismatchError()
		}

		previous, err := s.stores.HandOvers.FindByBookingID(ctx, bk.ID())
		if err != nil {
			return fmt.Errorf("failed to load handover records: %w", err)
		}
		if len(previous) > 0 {
			return domain.NewConflictError("booking has already been handed over")
		}

		car, err := s.stores.Cars.FindByIDForUpdate(ctx, bk.CarID())
		if err != nil {
			return err
		}
		car.HandOut()
		if err := s.stores.Cars.Update(ctx, car); err != nil {
			return err
		}

		record = allocation.NewHandOverRecord(bk.ID(), actor.UserID)
		return s.stores.HandOvers.Save(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("car handed over",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_code", bk.BookingCode()),
		zap.String("car_id", bk.CarID().String()),
	)
	s.effects.Notify(ctx, bk.CustomerID(), "Car Handed Over - "+bk.BookingCode(),
		fmt.Sprintf("Enjoy your ride. Please return the car by %s.", formatDate(bk.EndDate())))
	s.effects.Audit(ctx, audit.ActionHandOver, "HandOverRecord", record.ID().String(), actor.UserID,
		fmt.Sprintf("Car %s handed over for booking %s", bk.CarID(), bk.BookingCode()))
	s.effects.Publish(ctx, messaging.TopicBookingEvents, messaging.BookingHandedOver, bk.ID().String(), messaging.HandOverEvent{
		BookingID:    bk.ID(),
		BookingCode:  bk.BookingCode(),
		CarID:        bk.CarID(),
		HandOverID:   record.ID(),
		HandedOverBy: actor.UserID,
		OccurredAt:   time.Now().UTC(),
	})

	result := toHandOverDTO(record)
	return &result, nil
}

// Return closes a booked rental: the booking completes and the car goes back to the pool
// whatever condition it came back in.
func (s *AllocationService) Return(ctx context.Context, bookingID uuid.UUID, actor Actor, req ReturnRequest) (*ReturnDTO, error) {
	if !actor.IsStaff() {
		return nil, domain.NewForbiddenError("only staff can record returns")
	}

	var (
		bk     *bookingDomain.Booking
		record *allocation.ReturnRecord
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		record, err = allocation.NewReturnRecord(bk.ID(), actor.UserID, req.CarCondition, req.ExtraCharge)
		if err != nil {
			return err
		}
		if err := bk.Complete(); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := s.stores.Bookings.Update(ctx, bk); err != nil {
			return err
		}

		car, err := s.stores.Cars.FindByIDForUpdate(ctx, bk.CarID())
		if err != nil {
			return err
		}
		car.MarkReturned()
		if err := s.stores.Cars.Update(ctx, car); err != nil {
			return err
		}

		if err := s.stores.Returns.Save(ctx, record); err != nil {
			return err
		}

		if bk.DriverID() == nil {
			return nil
		}
		drivers, err := s.res.lockDrivers(ctx, bk.DriverID())
		if err != nil {
			return err
		}
		return s.res.releaseDriver(ctx, drivers[*bk.DriverID()], bk, false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("car returned",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_code", bk.BookingCode()),
		zap.String("car_id", bk.CarID().String()),
		zap.String("condition", record.CarCondition()),
	)
	message := fmt.Sprintf("Thank you for riding with us. Booking %s is complete.", bk.BookingCode())
	if record.ExtraCharge().IsPositive() {
		message += fmt.Sprintf(" An extra charge of %s %s applies.", bk.Currency(), record.ExtraCharge().StringFixed(2))
	}
	s.effects.Notify(ctx, bk.CustomerID(), "Booking Completed - "+bk.BookingCode(), message)
	s.effects.Audit(ctx, audit.ActionReturn, "ReturnRecord", record.ID().String(), actor.UserID,
		fmt.Sprintf("Car %s returned for booking %s, condition: %s", bk.CarID(), bk.BookingCode(), record.CarCondition()))
	s.effects.Publish(ctx, messaging.TopicBookingEvents, messaging.BookingReturned, bk.ID().String(), messaging.ReturnEvent{
		BookingID:    bk.ID(),
		BookingCode:  bk.BookingCode(),
		CarID:        bk.CarID(),
		ReturnID:     record.ID(),
		CarCondition: record.CarCondition(),
		ExtraCharge:  record.ExtraCharge(),
		OccurredAt:   time.Now().UTC(),
	})

	result := toReturnDTO(record, bk)
	return &result, nil
}

// RequestExtension asks to push a booking's end date. It is approved on the spot when the car
// and driver stay free through the new date, otherwise it waits for staff review.
func (s *AllocationService) RequestExtension(ctx context.Context, bookingID uuid.UUID, actor Actor, req ExtensionRequestInput) (*ExtensionDTO, error) {
	newEnd, err := parseDate("new_end_date", req.NewEndDate)
	if err != nil {
		return nil, err
	}

	var (
		bk  *bookingDomain.Booking
		ext *allocation.ExtensionRequest
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsOwnedBy(actor.UserID) && !actor.IsStaff() {
			return domain.NewForbiddenError("booking does not belong to this user")
		}
		if err := bk.CheckExtension(newEnd); err != nil {
			return err
		}

		existing, err := s.stores.Extensions.FindByBookingID(ctx, bk.ID())
		if err != nil {
			return fmt.Errorf("failed to load extension requests: %w", err)
		}
		for _, e := range existing {
			if e.Status() == allocation.ExtensionPending {
				return domain.NewConflictError("an extension request for this booking is already awaiting review")
			}
		}

		ext, err = allocation.NewExtensionRequest(bk.ID(), actor.UserID, bk.EndDate(), newEnd, req.Reason)
		if err != nil {
			return err
		}

		free, err := s.resourcesFreeThrough(ctx, bk, ext.NewEndDate())
		if err != nil {
			return err
		}
		if free {
			if err := ext.AutoApprove(); err != nil {
				return err
			}
			if err := s.applyExtension(ctx, bk, ext.NewEndDate()); err != nil {
				return err
			}
		}
		return s.stores.Extensions.Save(ctx, ext)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("extension requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_code", bk.BookingCode()),
		zap.String("new_end_date", formatDate(ext.NewEndDate())),
		zap.String("status", string(ext.Status())),
	)
	if ext.Status() == allocation.ExtensionApproved {
		s.effects.Notify(ctx, bk.CustomerID(), "Extension Approved - "+bk.BookingCode(),
			fmt.Sprintf("Your booking now ends on %s.", formatDate(bk.EndDate())))
	} else {
		s.effects.Notify(ctx, bk.CustomerID(), "Extension Pending - "+bk.BookingCode(),
			"Your extension request is awaiting review by our staff.")
		s.effects.NotifyAll(ctx, s.stores.Staff.ListUserIDs, "Extension Request",
			fmt.Sprintf("Booking %s asks to extend to %s.", bk.BookingCode(), formatDate(ext.NewEndDate())))
	}
	s.effects.Audit(ctx, audit.ActionExtend, "BookingExtensionRequest", ext.ID().String(), actor.UserID,
		fmt.Sprintf("Extension of %s to %s: %s", bk.BookingCode(), formatDate(ext.NewEndDate()), ext.Status()))
	s.publishExtensionEvent(ctx, messaging.BookingExtensionRequested, ext)

	result := toExtensionDTO(ext)
	return &result, nil
}

// ReviewExtension records a staff decision on a pending extension. Approval applies the new
// end date without re-checking availability.
func (s *AllocationService) ReviewExtension(ctx context.Context, extensionID uuid.UUID, actor Actor, req ReviewExtensionRequest) (*ExtensionDTO, error) {
	if !actor.IsStaff() {
		return nil, domain.NewForbiddenError("only staff can review extensions")
	}

	var (
		bk  *bookingDomain.Booking
		ext *allocation.ExtensionRequest
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		ext, err = s.stores.Extensions.FindByIDForUpdate(ctx, extensionID)
		if err != nil {
			return err
		}
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, ext.BookingID())
		if err != nil {
			return err
		}
		if err := ext.Review(req.Approve, actor.UserID); err != nil {
			return err
		}
		if req.Approve {
			if err := s.applyExtension(ctx, bk, ext.NewEndDate()); err != nil {
				return err
			}
		}
		return s.stores.Extensions.Update(ctx, ext)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("extension reviewed",
		zap.String("extension_id", ext.ID().String()),
		zap.String("booking_id", bk.ID().String()),
		zap.Bool("approved", req.Approve),
	)
	if req.Approve {
		s.effects.Notify(ctx, bk.CustomerID(), "Extension Approved - "+bk.BookingCode(),
			fmt.Sprintf("Your booking now ends on %s.", formatDate(bk.EndDate())))
	} else {
		s.effects.Notify(ctx, bk.CustomerID(), "Extension Rejected - "+bk.BookingCode(),
			fmt.Sprintf("Your booking still ends on %s.", formatDate(bk.EndDate())))
	}
	s.effects.Audit(ctx, audit.ActionReview, "BookingExtensionRequest", ext.ID().String(), actor.UserID,
		fmt.Sprintf("Extension of %s %s", bk.BookingCode(), ext.Status()))
	s.publishExtensionEvent(ctx, messaging.BookingExtensionReviewed, ext)

	result := toExtensionDTO(ext)
	return &result, nil
}

// ListPendingExtensions returns extension requests awaiting review.
func (s *AllocationService) ListPendingExtensions(ctx context.Context, page, limit int) (*domain.PaginatedResult[ExtensionDTO], error) {
	items, total, err := s.stores.Extensions.ListPending(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]ExtensionDTO, len(items))
	for i, e := range items {
		dtos[i] = toExtensionDTO(e)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetBookingHistory lists the handover and return records of a booking.
func (s *AllocationService) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]HandOverDTO, []ReturnDTO, error) {
	bk, err := s.stores.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	handovers, err := s.stores.HandOvers.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	returns, err := s.stores.Returns.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	hDTOs := make([]HandOverDTO, len(handovers))
	for i, h := range handovers {
		hDTOs[i] = toHandOverDTO(h)
	}
	rDTOs := make([]ReturnDTO, len(returns))
	for i, r := range returns {
		rDTOs[i] = toReturnDTO(r, bk)
	}
	return hDTOs, rDTOs, nil
}

// --- Helpers ---

// resourcesFreeThrough locks the car and driver of bk and reports whether both stay free
// from the booking's start through newEnd, ignoring bk itself.
func (s *AllocationService) resourcesFreeThrough(ctx context.Context, bk *bookingDomain.Booking, newEnd time.Time) (bool, error) {
	if _, err := s.stores.Cars.FindByIDForUpdate(ctx, bk.CarID()); err != nil {
		return false, err
	}
	if err := s.res.ensureCarFree(ctx, bk.CarID(), bk.StartDate(), newEnd, bk.ID()); err != nil {
		return false, ignoreUnavailable(err)
	}

	if bk.DriverID() == nil {
		return true, nil
	}
	if _, err := s.res.lockDrivers(ctx, bk.DriverID()); err != nil {
		return false, err
	}
	if err := s.res.ensureDriverFree(ctx, *bk.DriverID(), bk.StartDate(), newEnd, bk.ID()); err != nil {
		return false, ignoreUnavailable(err)
	}
	return true, nil
}

func (s *AllocationService) applyExtension(ctx context.Context, bk *bookingDomain.Booking, newEnd time.Time) error {
	if err := bk.ExtendTo(newEnd); err != nil {
		return err
	}
	bk.IncrementVersion()
	if err := s.stores.Bookings.Update(ctx, bk); err != nil {
		return err
	}
	return s.res.rescheduleDriver(ctx, bk)
}

func (s *AllocationService) publishExtensionEvent(ctx context.Context, eventType string, ext *allocation.ExtensionRequest) {
	s.effects.Publish(ctx, messaging.TopicBookingEvents, eventType, ext.BookingID().String(), messaging.ExtensionEvent{
		ExtensionID:  ext.ID(),
		BookingID:    ext.BookingID(),
		NewEndDate:   formatDate(ext.NewEndDate()),
		Status:       string(ext.Status()),
		AutoApproved: ext.AutoApproved(),
		ReviewedBy:   ext.ReviewedBy(),
		OccurredAt:   time.Now().UTC(),
	})
}

// ignoreUnavailable turns a ResourceUnavailable error into "not free" and passes anything else on.
func ignoreUnavailable(err error) error {
	if domain.IsCode(err, domain.CodeResourceUnavailable) {
		return nil
	}
	return err
}
