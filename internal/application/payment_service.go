package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/picktoride/service-rental/internal/domain/audit"
	bookingDomain "github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/domain/payment"
	"github.com/picktoride/service-rental/internal/messaging"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// PaymentService records payments and confirms the bookings they pay for.
// Card processing is simulated: every in-app payment succeeds.
type PaymentService struct {
	tx       TxManager
	stores   Stores
	bookings *BookingService
	effects  *SideEffects
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(tx TxManager, stores Stores, bookings *BookingService, effects *SideEffects, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		tx:       tx,
		stores:   stores,
		bookings: bookings,
		effects:  effects,
		logger:   logger,
	}
}

// Pay charges the booking total and confirms the booking in the same transaction.
func (s *PaymentService) Pay(ctx context.Context, bookingID uuid.UUID, actor Actor, req PayRequest) (*PaymentResultDTO, error) {
	method, err := payment.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	var (
		bk *bookingDomain.Booking
		p  *payment.Payment
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsOwnedBy(actor.UserID) {
			return domain.NewForbiddenError("booking does not belong to this user")
		}
		switch bk.Status() {
		case bookingDomain.StatusPending:
		case bookingDomain.StatusBooked:
			return domain.NewAlreadyConfirmedError(bk.ID().String())
		default:
			return domain.NewInvalidStateError(bk.Status().String(), bookingDomain.StatusBooked.String())
		}

		p, err = payment.NewPaidPayment(uuid.Nil, bk.ID(), bk.TotalAmount(), bk.Currency(), method, "")
		if err != nil {
			return err
		}
		if err := s.stores.Payments.Save(ctx, p); err != nil {
			return err
		}
		bk, _, err = s.bookings.confirmInTx(ctx, bk.ID(), p.ID())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", bk.ID().String()),
		zap.String("amount", p.Amount().StringFixed(2)),
	)
	s.effects.Audit(ctx, audit.ActionPayment, "Payment", p.ID().String(), actor.UserID,
		fmt.Sprintf("Payment of %s %s for booking %s", p.Currency(), p.Amount().StringFixed(2), bk.BookingCode()))
	s.bookings.afterConfirm(ctx, bk)

	return &PaymentResultDTO{Payment: toPaymentDTO(p), Booking: toBookingDTO(bk)}, nil
}

// RecordExternalPayment applies a payment cleared by an external gateway. Redelivery of the
// same payment id is a no-op.
func (s *PaymentService) RecordExternalPayment(ctx context.Context, evt messaging.PaymentSucceededEvent) (*BookingDTO, error) {
	if evt.PaymentID == uuid.Nil {
		return nil, domain.NewFieldValidationError("payment_id", "payment id is required")
	}
	method, err := payment.ParseMethod(evt.Method)
	if err != nil {
		method = payment.MethodOnline
	}

	var (
		bk      *bookingDomain.Booking
		changed bool
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.stores.Bookings.FindByIDForUpdate(ctx, evt.BookingID)
		if err != nil {
			return err
		}

		existing, err := s.stores.Payments.FindByID(ctx, evt.PaymentID)
		switch {
		case err == nil:
			if existing.BookingID() != bk.ID() {
				return domain.NewConflictError("payment " + evt.PaymentID.String() + " belongs to another booking")
			}
		case domain.IsCode(err, domain.CodeNotFound):
			if !evt.Amount.Equal(bk.TotalAmount()) {
				return domain.NewFieldValidationError("amount",
					fmt.Sprintf("payment amount %s does not match booking total %s", evt.Amount.StringFixed(2), bk.TotalAmount().StringFixed(2)))
			}
			currency := evt.Currency
			if currency == "" {
				currency = bk.Currency()
			}
			p, err := payment.NewPaidPayment(evt.PaymentID, bk.ID(), evt.Amount, currency, method, evt.ExternalRef)
			if err != nil {
				return err
			}
			if err := s.stores.Payments.Save(ctx, p); err != nil {
				return err
			}
		default:
			return err
		}

		bk, changed, err = s.bookings.confirmInTx(ctx, bk.ID(), evt.PaymentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.effects.Audit(ctx, audit.ActionPayment, "Payment", evt.PaymentID.String(), bk.CustomerID(),
			fmt.Sprintf("External payment %s for booking %s", evt.ExternalRef, bk.BookingCode()))
		s.bookings.afterConfirm(ctx, bk)
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetLatestPayment returns the authoritative payment of a booking.
func (s *PaymentService) GetLatestPayment(ctx context.Context, bookingID uuid.UUID, actor Actor) (*PaymentDTO, error) {
	bk, err := s.stores.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(actor.UserID) && !actor.IsStaff() {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	p, err := s.stores.Payments.FindLatestPaidByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(p)
	return &result, nil
}
