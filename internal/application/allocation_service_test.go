package application

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picktoride/service-rental/internal/domain/allocation"
	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/messaging"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

func TestRentalRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.createBooking(1, 3, true)
	require.NoError(t, err)
	paid, err := f.payments.Pay(ctx, created.ID, f.customer, PayRequest{Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusBooked.String(), paid.Booking.Status)
	assert.Equal(t, fleet.AvailabilityOnDuty, f.loadStaff(f.driver.ID()).Availability())

	handover, err := f.allocations.HandOver(ctx, created.ID, f.staff, HandOverRequest{BookingCode: created.BookingCode})
	require.NoError(t, err)
	assert.Equal(t, f.staff.UserID, handover.UserID)
	assert.Equal(t, fleet.CarStatusOnDuty, f.loadCar(f.car.ID()).Status())

	returned, err := f.allocations.Return(ctx, created.ID, f.staff, ReturnRequest{
		CarCondition: "Minor scratch on rear bumper",
		ExtraCharge:  decimal.RequireFromString("1250.456"),
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted.String(), returned.Booking.Status)
	assert.NotNil(t, returned.Booking.CompletedAt)
	assert.Equal(t, "1250.46", returned.ExtraCharge.StringFixed(2))

	assert.Equal(t, fleet.CarStatusAvailable, f.loadCar(f.car.ID()).Status())
	assert.Equal(t, fleet.AvailabilityAvailable, f.loadStaff(f.driver.ID()).Availability())
	// The schedule stays as a record of the completed trip.
	assert.Len(t, f.schedulesOf(f.driver.ID()), 1)

	handovers, returns, err := f.allocations.GetBookingHistory(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, handovers, 1)
	assert.Len(t, returns, 1)

	assert.Contains(t, f.notifier.titlesFor(f.customer.UserID), "Booking Completed - "+created.BookingCode)
	assert.Contains(t, f.publisher.types, messaging.BookingHandedOver)
	assert.Contains(t, f.publisher.types, messaging.BookingReturned)
}

func TestHandOver_CodeMatchIsCaseInsensitive(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, false)

	_, err := f.allocations.HandOver(context.Background(), bk.ID, f.staff, HandOverRequest{
		BookingCode: "  " + strings.ToLower(bk.BookingCode) + " ",
	})
	require.NoError(t, err)
}

func TestHandOver_WrongCodeCreatesNoRecord(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, false)

	_, err := f.allocations.HandOver(context.Background(), bk.ID, f.staff, HandOverRequest{BookingCode: "ZZZZZZ"})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeCodeMismatch))

	handovers, _, err := f.allocations.GetBookingHistory(context.Background(), bk.ID)
	require.NoError(t, err)
	assert.Empty(t, handovers)
	assert.Equal(t, fleet.CarStatusAvailable, f.loadCar(f.car.ID()).Status())
}

func TestHandOver_Preconditions(t *testing.T) {
	f := newFixture()
	pending, err := f.createBooking(1, 3, false)
	require.NoError(t, err)
	booked := f.confirmedBooking(5, 6, false)

	_, err = f.allocations.HandOver(context.Background(), pending.ID, f.staff, HandOverRequest{BookingCode: pending.BookingCode})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))

	_, err = f.allocations.HandOver(context.Background(), booked.ID, f.customer, HandOverRequest{BookingCode: booked.BookingCode})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	_, err = f.allocations.HandOver(context.Background(), booked.ID, f.staff, HandOverRequest{BookingCode: booked.BookingCode})
	require.NoError(t, err)
	_, err = f.allocations.HandOver(context.Background(), booked.ID, f.staff, HandOverRequest{BookingCode: booked.BookingCode})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeConflict))
}

func TestReturn_Preconditions(t *testing.T) {
	f := newFixture()
	pending, err := f.createBooking(1, 3, false)
	require.NoError(t, err)
	booked := f.confirmedBooking(5, 6, false)

	_, err = f.allocations.Return(context.Background(), pending.ID, f.staff, ReturnRequest{CarCondition: "Good"})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))

	_, err = f.allocations.Return(context.Background(), booked.ID, f.staff, ReturnRequest{CarCondition: " "})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))

	_, err = f.allocations.Return(context.Background(), booked.ID, f.staff, ReturnRequest{
		CarCondition: "Good",
		ExtraCharge:  decimal.NewFromInt(-1),
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))

	_, err = f.allocations.Return(context.Background(), booked.ID, f.customer, ReturnRequest{CarCondition: "Good"})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	assert.Equal(t, booking.StatusBooked, f.loadBooking(booked.ID).Status())
}

func TestRequestExtension_AutoApprovesWhenFree(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, true)

	ext, err := f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{
		NewEndDate: day(5),
		Reason:     "Flight moved",
	})
	require.NoError(t, err)

	assert.Equal(t, string(allocation.ExtensionApproved), ext.Status)
	assert.True(t, ext.AutoApproved)
	assert.Equal(t, day(3), ext.PreviousEnd)

	stored := f.loadBooking(bk.ID)
	assert.Equal(t, day(5), stored.EndDate().Format(DateLayout))
	assert.True(t, bk.TotalAmount.Equal(stored.TotalAmount()))

	schedules := f.schedulesOf(f.driver.ID())
	require.Len(t, schedules, 1)
	assert.Equal(t, day(5), schedules[0].Period().End.Format(DateLayout))
	assert.Contains(t, f.notifier.titlesFor(f.customer.UserID), "Extension Approved - "+bk.BookingCode)
}

func TestRequestExtension_CarConflictLeavesItPending(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, false)
	_ = f.confirmedBooking(6, 8, false)

	ext, err := f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{NewEndDate: day(7)})
	require.NoError(t, err)

	assert.Equal(t, string(allocation.ExtensionPending), ext.Status)
	assert.False(t, ext.AutoApproved)
	assert.Equal(t, day(3), f.loadBooking(bk.ID).EndDate().Format(DateLayout))
	assert.Contains(t, f.notifier.titlesFor(f.driver.UserID()), "Extension Request")

	pending, err := f.allocations.ListPendingExtensions(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, ext.ID, pending.Items[0].ID)

	_, err = f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{NewEndDate: day(4)})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeConflict))
}

func TestRequestExtension_DriverConflictLeavesItPending(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, true)
	period, err := booking.NewPeriod(fixtureToday.AddDate(0, 0, 5), fixtureToday.AddDate(0, 0, 6))
	require.NoError(t, err)
	leave, err := fleet.NewDriverSchedule(f.driver.ID(), period, nil)
	require.NoError(t, err)
	require.NoError(t, f.stores.Schedules.Save(context.Background(), leave))

	ext, err := f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{NewEndDate: day(5)})
	require.NoError(t, err)
	assert.Equal(t, string(allocation.ExtensionPending), ext.Status)
}

func TestRequestExtension_Rejections(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, false)

	_, err := f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{NewEndDate: day(3)})
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeValidation, appErr.Code)
	assert.Equal(t, "new_end_date", appErr.Field)

	_, err = f.allocations.RequestExtension(context.Background(), bk.ID, f.customer,
		ExtensionRequestInput{NewEndDate: day(1 + booking.MaxRentalDays + 1)})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
	assert.Equal(t, day(3), f.loadBooking(bk.ID).EndDate().Format(DateLayout))

	_, err = f.allocations.RequestExtension(context.Background(), bk.ID, Actor{UserID: uuid.New(), Role: f.customer.Role}, ExtensionRequestInput{NewEndDate: day(5)})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	_, err = f.bookings.CancelBooking(context.Background(), bk.ID, f.customer)
	require.NoError(t, err)
	_, err = f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{NewEndDate: day(5)})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
}

func TestReviewExtension_ApproveAppliesNewEnd(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, true)
	period, err := booking.NewPeriod(fixtureToday.AddDate(0, 0, 4), fixtureToday.AddDate(0, 0, 5))
	require.NoError(t, err)
	leave, err := fleet.NewDriverSchedule(f.driver.ID(), period, nil)
	require.NoError(t, err)
	require.NoError(t, f.stores.Schedules.Save(context.Background(), leave))

	ext, err := f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{NewEndDate: day(4)})
	require.NoError(t, err)
	require.Equal(t, string(allocation.ExtensionPending), ext.Status)

	reviewed, err := f.allocations.ReviewExtension(context.Background(), ext.ID, f.staff, ReviewExtensionRequest{Approve: true})
	require.NoError(t, err)

	assert.Equal(t, string(allocation.ExtensionApproved), reviewed.Status)
	assert.False(t, reviewed.AutoApproved)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, f.staff.UserID, *reviewed.ReviewedBy)
	assert.Equal(t, day(4), f.loadBooking(bk.ID).EndDate().Format(DateLayout))

	_, err = f.allocations.ReviewExtension(context.Background(), ext.ID, f.staff, ReviewExtensionRequest{Approve: false})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
}

func TestReviewExtension_RejectKeepsEndDate(t *testing.T) {
	f := newFixture()
	bk := f.confirmedBooking(1, 3, false)
	_ = f.confirmedBooking(5, 6, false)

	ext, err := f.allocations.RequestExtension(context.Background(), bk.ID, f.customer, ExtensionRequestInput{NewEndDate: day(5)})
	require.NoError(t, err)

	_, err = f.allocations.ReviewExtension(context.Background(), ext.ID, f.customer, ReviewExtensionRequest{Approve: false})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	reviewed, err := f.allocations.ReviewExtension(context.Background(), ext.ID, f.staff, ReviewExtensionRequest{Approve: false})
	require.NoError(t, err)
	assert.Equal(t, string(allocation.ExtensionRejected), reviewed.Status)
	assert.Equal(t, day(3), f.loadBooking(bk.ID).EndDate().Format(DateLayout))
	assert.Contains(t, f.notifier.titlesFor(f.customer.UserID), "Extension Rejected - "+bk.BookingCode)

	_, err = f.allocations.ReviewExtension(context.Background(), uuid.New(), f.staff, ReviewExtensionRequest{Approve: true})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}
