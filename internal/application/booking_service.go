package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/picktoride/service-rental/internal/domain/audit"
	bookingDomain "github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/messaging"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// maxCodeAttempts bounds booking code regeneration on collision.
const maxCodeAttempts = 10

// statsWindowDays is how many days the dashboard's bookings-per-day series covers.
const statsWindowDays = 7

// BookingService is the application service orchestrating the booking lifecycle.
type BookingService struct {
	tx       TxManager
	stores   Stores
	res      resources
	pricing  bookingDomain.PricingStrategy
	effects  *SideEffects
	currency string
	now      Clock
	newCode  bookingDomain.CodeGenerator
	logger   *zap.Logger
}

// BookingServiceOption customizes a BookingService.
type BookingServiceOption func(*BookingService)

// WithClock replaces the wall clock used for the "start date not in the past" rule.
func WithClock(now Clock) BookingServiceOption {
	return func(s *BookingService) { s.now = now }
}

// WithCodeGenerator replaces the booking code generator.
func WithCodeGenerator(gen bookingDomain.CodeGenerator) BookingServiceOption {
	return func(s *BookingService) { s.newCode = gen }
}

// WithCurrency sets the currency stamped on new bookings.
func WithCurrency(currency string) BookingServiceOption {
	return func(s *BookingService) { s.currency = currency }
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	tx TxManager,
	stores Stores,
	pricing bookingDomain.PricingStrategy,
	effects *SideEffects,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		tx:       tx,
		stores:   stores,
		res:      resources{stores: stores},
		pricing:  pricing,
		effects:  effects,
		currency: domain.CurrencyLKR,
		now:      time.Now,
		newCode:  bookingDomain.GenerateBookingCode,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking reserves a car, and optionally a driver, for the customer.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	period, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	assignment := bookingDomain.Assignment{
		CarID:          req.CarID,
		DriverID:       req.DriverID,
		Period:         period,
		DriverRequired: req.DriverRequired,
		PickupLocation: req.PickupLocation,
	}
	if err := assignment.Validate(); err != nil {
		return nil, err
	}
	if period.Start.Before(bookingDomain.DateOf(s.now())) {
		return nil, domain.NewFieldValidationError("start_date", "start date cannot be in the past")
	}

	var bk *bookingDomain.Booking
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		car, err := s.res.lockBookableCar(ctx, assignment.CarID)
		if err != nil {
			return err
		}
		if err := s.res.ensureCarFree(ctx, car.ID(), period.Start, period.End, uuid.Nil); err != nil {
			return err
		}

		if assignment.DriverID != nil {
			drivers, err := s.res.lockDrivers(ctx, assignment.DriverID)
			if err != nil {
				return err
			}
			if !drivers[*assignment.DriverID].CanDrive() {
				return domain.NewFieldValidationError("driver_id", "the selected staff member cannot drive")
			}
			if err := s.res.ensureDriverFree(ctx, *assignment.DriverID, period.Start, period.End, uuid.Nil); err != nil {
				return err
			}
		}

		total, err := s.pricing.ComputeTotal(bookingDomain.PricingParams{
			CarDailyRate:   car.DailyRate(),
			DriverRequired: assignment.DriverRequired,
			StartDate:      period.Start,
			EndDate:        period.End,
		})
		if err != nil {
			return err
		}

		code, err := s.uniqueBookingCode(ctx)
		if err != nil {
			return err
		}

		bk, err = bookingDomain.NewBooking(bookingDomain.NewBookingParams{
			BookingCode:    code,
			CarID:          car.ID(),
			CustomerID:     customerID,
			DriverID:       assignment.DriverID,
			Period:         period,
			DriverRequired: assignment.DriverRequired,
			PickupLocation: assignment.PickupLocation,
			TotalAmount:    total,
			Currency:       s.currency,
		}, s.now())
		if err != nil {
			return err
		}
		return s.stores.Bookings.Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_code", bk.BookingCode()),
		zap.String("car_id", bk.CarID().String()),
		zap.String("total", bk.TotalAmount().StringFixed(2)),
	)
	s.effects.Audit(ctx, audit.ActionCreate, "Booking", bk.ID().String(), customerID,
		fmt.Sprintf("Booking %s created for %s to %s", bk.BookingCode(), formatDate(bk.StartDate()), formatDate(bk.EndDate())))
	s.publishBookingEvent(ctx, messaging.BookingCreated, bk, &customerID)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking moves a pending booking to booked once paymentID has cleared.
// Repeating the call with the same payment is a no-op.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, paymentID uuid.UUID) (*BookingDTO, error) {
	var (
		bk      *bookingDomain.Booking
		changed bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, changed, err = s.confirmInTx(ctx, bookingID, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.afterConfirm(ctx, bk)
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// confirmInTx performs the confirmation inside the caller's transaction.
func (s *BookingService) confirmInTx(ctx context.Context, bookingID, paymentID uuid.UUID) (*bookingDomain.Booking, bool, error) {
	bk, err := s.stores.Bookings.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	changed, err := bk.Confirm(paymentID)
	if err != nil || !changed {
		return bk, false, err
	}

	bk.IncrementVersion()
	if err := s.stores.Bookings.Update(ctx, bk); err != nil {
		return nil, false, err
	}

	if bk.DriverID() != nil {
		drivers, err := s.res.lockDrivers(ctx, bk.DriverID())
		if err != nil {
			return nil, false, err
		}
		driver := drivers[*bk.DriverID()]
		if !driver.CanDrive() {
			s.logger.Warn("confirming booking for a driver who is unavailable",
				zap.String("booking_id", bk.ID().String()),
				zap.String("driver_id", driver.ID().String()),
			)
		}
		if err := s.res.assignDriver(ctx, driver, bk); err != nil {
			return nil, false, err
		}
	}
	return bk, true, nil
}

func (s *BookingService) afterConfirm(ctx context.Context, bk *bookingDomain.Booking) {
	s.logger.Info("booking confirmed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_code", bk.BookingCode()),
		zap.String("car_id", bk.CarID().String()),
	)

	pickup := bk.PickupLocation()
	if pickup == "" {
		pickup = "N/A"
	}
	s.effects.Notify(ctx, bk.CustomerID(),
		"Booking Confirmed - "+bk.BookingCode(),
		fmt.Sprintf("Your booking (%s) is confirmed. Pickup: %s. Total: %s %s.",
			bk.BookingCode(), pickup, bk.Currency(), bk.TotalAmount().StringFixed(2)))
	s.effects.NotifyAll(ctx, s.stores.Staff.ListUserIDs,
		"New Booking Received",
		fmt.Sprintf("New booking %s by user %s. Pick-up: %s", bk.BookingCode(), bk.CustomerID(), pickup))
	s.effects.Audit(ctx, audit.ActionConfirm, "Booking", bk.ID().String(), bk.CustomerID(),
		fmt.Sprintf("Booking %s confirmed by payment %s", bk.BookingCode(), bk.PaymentID()))
	s.publishBookingEvent(ctx, messaging.BookingConfirmed, bk, nil)
}

// CancelBooking cancels a pending or booked booking. Only the owner or staff may cancel.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsOwnedBy(actor.UserID) && !actor.IsStaff() {
			return domain.NewForbiddenError("booking does not belong to this user")
		}
		if err := bk.Cancel(actor.UserID); err != nil {
			return err
		}
		if err := s.res.ensureNotHandedOver(ctx, bk, bookingDomain.StatusCancelled.String()); err != nil {
			return err
		}

		bk.IncrementVersion()
		if err := s.stores.Bookings.Update(ctx, bk); err != nil {
			return err
		}

		if bk.DriverID() == nil {
			return nil
		}
		drivers, err := s.res.lockDrivers(ctx, bk.DriverID())
		if err != nil {
			return err
		}
		return s.res.releaseDriver(ctx, drivers[*bk.DriverID()], bk, true)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_code", bk.BookingCode()),
		zap.String("cancelled_by", actor.UserID.String()),
	)
	s.effects.Notify(ctx, bk.CustomerID(), "Booking Cancelled - "+bk.BookingCode(),
		fmt.Sprintf("Your booking (%s) has been cancelled.", bk.BookingCode()))
	s.effects.Audit(ctx, audit.ActionCancel, "Booking", bk.ID().String(), actor.UserID,
		fmt.Sprintf("Booking %s cancelled", bk.BookingCode()))
	s.publishBookingEvent(ctx, messaging.BookingCancelled, bk, &actor.UserID)

	result := toBookingDTO(bk)
	return &result, nil
}

// EditBooking lets staff change the car, driver and dates of an active booking.
func (s *BookingService) EditBooking(ctx context.Context, bookingID uuid.UUID, actor Actor, req EditBookingRequest) (*BookingDTO, error) {
	if !actor.IsStaff() {
		return nil, domain.NewForbiddenError("only staff can edit bookings")
	}
	period, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	assignment := bookingDomain.Assignment{
		CarID:          req.CarID,
		DriverID:       req.DriverID,
		Period:         period,
		DriverRequired: req.DriverRequired,
		PickupLocation: req.PickupLocation,
	}
	if err := assignment.Validate(); err != nil {
		return nil, err
	}

	var bk *bookingDomain.Booking
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.Status().IsActive() {
			return domain.NewInvalidStateError(bk.Status().String(), "edited")
		}
		if err := s.res.ensureNotHandedOver(ctx, bk, "edited"); err != nil {
			return err
		}

		car, err := s.res.lockBookableCar(ctx, assignment.CarID)
		if err != nil {
			return err
		}
		if err := s.res.ensureCarFree(ctx, car.ID(), period.Start, period.End, bk.ID()); err != nil {
			return err
		}

		oldDriverID := bk.DriverID()
		drivers, err := s.res.lockDrivers(ctx, oldDriverID, assignment.DriverID)
		if err != nil {
			return err
		}
		if assignment.DriverID != nil {
			newDriver := drivers[*assignment.DriverID]
			if !newDriver.CanDrive() {
				return domain.NewFieldValidationError("driver_id", "the selected staff member cannot drive")
			}
			if err := s.res.ensureDriverFree(ctx, newDriver.ID(), period.Start, period.End, bk.ID()); err != nil {
				return err
			}
		}

		total, err := s.pricing.ComputeTotal(bookingDomain.PricingParams{
			CarDailyRate:   car.DailyRate(),
			DriverRequired: assignment.DriverRequired,
			StartDate:      period.Start,
			EndDate:        period.End,
		})
		if err != nil {
			return err
		}
		if err := bk.Amend(assignment, total); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := s.stores.Bookings.Update(ctx, bk); err != nil {
			return err
		}

		return s.syncDriverAfterEdit(ctx, bk, oldDriverID, drivers)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking edited",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_code", bk.BookingCode()),
		zap.String("car_id", bk.CarID().String()),
		zap.String("edited_by", actor.UserID.String()),
	)
	s.effects.Notify(ctx, bk.CustomerID(), "Booking Updated - "+bk.BookingCode(),
		fmt.Sprintf("Your booking (%s) now runs %s to %s. Total: %s %s.",
			bk.BookingCode(), formatDate(bk.StartDate()), formatDate(bk.EndDate()), bk.Currency(), bk.TotalAmount().StringFixed(2)))
	s.effects.Audit(ctx, audit.ActionUpdate, "Booking", bk.ID().String(), actor.UserID,
		fmt.Sprintf("Booking %s edited", bk.BookingCode()))
	s.publishBookingEvent(ctx, messaging.BookingEdited, bk, &actor.UserID)

	result := toBookingDTO(bk)
	return &result, nil
}

// syncDriverAfterEdit moves driver schedules and duty state to match an amended booking.
// Pending bookings hold no schedule yet; confirmation writes it.
func (s *BookingService) syncDriverAfterEdit(ctx context.Context, bk *bookingDomain.Booking, oldDriverID *uuid.UUID, drivers map[uuid.UUID]*fleet.Staff) error {
	newDriverID := bk.DriverID()
	sameDriver := oldDriverID != nil && newDriverID != nil && *oldDriverID == *newDriverID

	if oldDriverID != nil && !sameDriver {
		if err := s.res.releaseDriver(ctx, drivers[*oldDriverID], bk, true); err != nil {
			return err
		}
	}
	if bk.Status() != bookingDomain.StatusBooked || newDriverID == nil {
		return nil
	}
	if sameDriver {
		return s.res.rescheduleDriver(ctx, bk)
	}
	return s.res.assignDriver(ctx, drivers[*newDriverID], bk)
}

// GetBooking retrieves a single booking visible to the actor.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDTO, error) {
	bk, err := s.stores.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(actor.UserID) && !actor.IsStaff() {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetCustomerBookings retrieves paginated bookings for a customer.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.stores.Bookings.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings, optionally filtered by status.
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) ([]BookingDTO, int64, error) {
	var filter *bookingDomain.BookingStatus
	if status != "" {
		parsed, err := bookingDomain.ParseBookingStatus(status)
		if err != nil {
			return nil, 0, domain.NewFieldValidationError("status", err.Error())
		}
		filter = &parsed
	}
	bookings, total, err := s.stores.Bookings.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns the admin dashboard figures. BookingsPerDay covers the last
// statsWindowDays UTC dates, oldest first, including days without bookings.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.stores.Bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	var total int64
	for _, c := range counts {
		total += c
	}

	revenue, err := s.stores.Payments.SumPaid(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	availableCars, err := s.stores.Cars.CountAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count available cars: %w", err)
	}
	onDuty, err := s.stores.Staff.CountDriversByAvailability(ctx, fleet.AvailabilityOnDuty)
	if err != nil {
		return nil, fmt.Errorf("failed to count drivers on duty: %w", err)
	}

	tomorrow := bookingDomain.DateOf(s.now()).AddDate(0, 0, 1)
	from := tomorrow.AddDate(0, 0, -statsWindowDays)
	perDay, err := s.stores.Bookings.CountCreatedPerDay(ctx, from, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings per day: %w", err)
	}
	daily := make([]DailyCountDTO, statsWindowDays)
	for i := range daily {
		d := from.AddDate(0, 0, i).Format(DateLayout)
		daily[i] = DailyCountDTO{Day: d, Count: perDay[d]}
	}

	return &BookingStatsDTO{
		TotalBookings:  total,
		ByStatus:       counts,
		TotalRevenue:   revenue,
		AvailableCars:  availableCars,
		DriversOnDuty:  onDuty,
		BookingsPerDay: daily,
	}, nil
}

// --- Helpers ---

// uniqueBookingCode draws codes until one is unused. The unique index on booking_code
// still guards against a concurrent insert of the same code.
func (s *BookingService) uniqueBookingCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		taken, err := s.stores.Bookings.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check booking code: %w", err)
		}
		if !taken {
			return code, nil
		}
		s.logger.Debug("booking code collision, regenerating", zap.String("booking_code", code))
	}
	return "", domain.NewConflictError("could not allocate a unique booking code")
}

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking, actorID *uuid.UUID) {
	evt := messaging.BookingEvent{
		BookingID:   bk.ID(),
		BookingCode: bk.BookingCode(),
		CarID:       bk.CarID(),
		CustomerID:  bk.CustomerID(),
		DriverID:    bk.DriverID(),
		StartDate:   formatDate(bk.StartDate()),
		EndDate:     formatDate(bk.EndDate()),
		Status:      bk.Status().String(),
		TotalAmount: bk.TotalAmount(),
		Currency:    bk.Currency(),
		PaymentID:   bk.PaymentID(),
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
	}
	s.effects.Publish(ctx, messaging.TopicBookingEvents, eventType, bk.ID().String(), evt)
}
