package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/domain/allocation"
	"github.com/picktoride/service-rental/internal/domain/audit"
	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/domain/notification"
	"github.com/picktoride/service-rental/internal/domain/payment"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CarID          uuid.UUID  `json:"car_id" binding:"required"`
	DriverID       *uuid.UUID `json:"driver_id"`
	StartDate      string     `json:"start_date" binding:"required"`
	EndDate        string     `json:"end_date" binding:"required"`
	DriverRequired bool       `json:"driver_required"`
	PickupLocation string     `json:"pickup_location"`
}

// EditBookingRequest replaces the car, driver and dates of a booking.
type EditBookingRequest struct {
	CarID          uuid.UUID  `json:"car_id" binding:"required"`
	DriverID       *uuid.UUID `json:"driver_id"`
	StartDate      string     `json:"start_date" binding:"required"`
	EndDate        string     `json:"end_date" binding:"required"`
	DriverRequired bool       `json:"driver_required"`
	PickupLocation string     `json:"pickup_location"`
}

// HandOverRequest carries the code the customer presents at pickup.
type HandOverRequest struct {
	BookingCode string `json:"booking_code" binding:"required"`
}

// ReturnRequest describes the car as it came back.
type ReturnRequest struct {
	CarCondition string          `json:"car_condition" binding:"required"`
	ExtraCharge  decimal.Decimal `json:"extra_charge"`
}

// ExtensionRequestInput asks to move a booking's end date.
type ExtensionRequestInput struct {
	NewEndDate string `json:"new_end_date" binding:"required"`
	Reason     string `json:"reason"`
}

// ReviewExtensionRequest is a staff decision on an extension.
type ReviewExtensionRequest struct {
	Approve bool `json:"approve"`
}

// PayRequest selects the payment method.
type PayRequest struct {
	Method string `json:"method"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID             uuid.UUID       `json:"id"`
	BookingCode    string          `json:"booking_code"`
	CarID          uuid.UUID       `json:"car_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	DriverID       *uuid.UUID      `json:"driver_id,omitempty"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Days           int64           `json:"days"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	DriverRequired bool            `json:"driver_required"`
	PickupLocation string          `json:"pickup_location,omitempty"`
	PaymentID      *uuid.UUID      `json:"payment_id,omitempty"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings  int64            `json:"total_bookings"`
	ByStatus       map[string]int64 `json:"by_status"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	AvailableCars  int64            `json:"available_cars"`
	DriversOnDuty  int64            `json:"drivers_on_duty"`
	BookingsPerDay []DailyCountDTO  `json:"bookings_per_day"`
}

// DailyCountDTO is the number of bookings created on one UTC date.
type DailyCountDTO struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// HandOverDTO is the response representation of a handover record.
type HandOverDTO struct {
	ID           uuid.UUID `json:"id"`
	BookingID    uuid.UUID `json:"booking_id"`
	UserID       uuid.UUID `json:"user_id"`
	HandedOverAt time.Time `json:"handed_over_at"`
}

// ReturnDTO is the response representation of a return record.
type ReturnDTO struct {
	ID           uuid.UUID       `json:"id"`
	BookingID    uuid.UUID       `json:"booking_id"`
	UserID       uuid.UUID       `json:"user_id"`
	ReturnedAt   time.Time       `json:"returned_at"`
	CarCondition string          `json:"car_condition"`
	ExtraCharge  decimal.Decimal `json:"extra_charge"`
	Booking      BookingDTO      `json:"booking"`
}

// ExtensionDTO is the response representation of an extension request.
type ExtensionDTO struct {
	ID           uuid.UUID  `json:"id"`
	BookingID    uuid.UUID  `json:"booking_id"`
	RequestedBy  uuid.UUID  `json:"requested_by"`
	PreviousEnd  string     `json:"previous_end_date"`
	NewEndDate   string     `json:"new_end_date"`
	Reason       string     `json:"reason,omitempty"`
	Status       string     `json:"status"`
	AutoApproved bool       `json:"auto_approved"`
	RequestDate  time.Time  `json:"request_date"`
	ReviewedBy   *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

// PaymentDTO is the response representation of a payment.
type PaymentDTO struct {
	ID        uuid.UUID       `json:"id"`
	BookingID uuid.UUID       `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

// PaymentResultDTO is returned by a successful payment.
type PaymentResultDTO struct {
	Payment PaymentDTO `json:"payment"`
	Booking BookingDTO `json:"booking"`
}

// NotificationDTO is the response representation of a notification.
type NotificationDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLogDTO is the response representation of an audit entry.
type AuditLogDTO struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	EntityName  string    `json:"entity_name"`
	EntityID    string    `json:"entity_id"`
	PerformedBy uuid.UUID `json:"performed_by"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Helpers ---

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewFieldValidationError(field, "date must use the YYYY-MM-DD format")
	}
	return t, nil
}

func parsePeriod(start, end string) (booking.Period, error) {
	s, err := parseDate("start_date", start)
	if err != nil {
		return booking.Period{}, err
	}
	e, err := parseDate("end_date", end)
	if err != nil {
		return booking.Period{}, err
	}
	return booking.NewPeriod(s, e)
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func toBookingDTO(bk *booking.Booking) BookingDTO {
	return BookingDTO{
		ID:             bk.ID(),
		BookingCode:    bk.BookingCode(),
		CarID:          bk.CarID(),
		CustomerID:     bk.CustomerID(),
		DriverID:       bk.DriverID(),
		StartDate:      formatDate(bk.StartDate()),
		EndDate:        formatDate(bk.EndDate()),
		Days:           bk.Period().Days(),
		Status:         bk.Status().String(),
		TotalAmount:    bk.TotalAmount(),
		Currency:       bk.Currency(),
		DriverRequired: bk.DriverRequired(),
		PickupLocation: bk.PickupLocation(),
		PaymentID:      bk.PaymentID(),
		ConfirmedAt:    bk.ConfirmedAt(),
		CancelledAt:    bk.CancelledAt(),
		CompletedAt:    bk.CompletedAt(),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*booking.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toHandOverDTO(r *allocation.HandOverRecord) HandOverDTO {
	return HandOverDTO{
		ID:           r.ID(),
		BookingID:    r.BookingID(),
		UserID:       r.UserID(),
		HandedOverAt: r.HandedOverAt(),
	}
}

func toReturnDTO(r *allocation.ReturnRecord, bk *booking.Booking) ReturnDTO {
	return ReturnDTO{
		ID:           r.ID(),
		BookingID:    r.BookingID(),
		UserID:       r.UserID(),
		ReturnedAt:   r.ReturnedAt(),
		CarCondition: r.CarCondition(),
		ExtraCharge:  r.ExtraCharge(),
		Booking:      toBookingDTO(bk),
	}
}

func toExtensionDTO(e *allocation.ExtensionRequest) ExtensionDTO {
	return ExtensionDTO{
		ID:           e.ID(),
		BookingID:    e.BookingID(),
		RequestedBy:  e.RequestedBy(),
		PreviousEnd:  formatDate(e.PreviousEnd()),
		NewEndDate:   formatDate(e.NewEndDate()),
		Reason:       e.Reason(),
		Status:       string(e.Status()),
		AutoApproved: e.AutoApproved(),
		RequestDate:  e.RequestDate(),
		ReviewedBy:   e.ReviewedBy(),
		ReviewedAt:   e.ReviewedAt(),
	}
}

func toPaymentDTO(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        p.ID(),
		BookingID: p.BookingID(),
		Amount:    p.Amount(),
		Currency:  p.Currency(),
		Method:    string(p.Method()),
		Status:    string(p.Status()),
		PaidAt:    p.PaidAt(),
	}
}

func toAuditLogDTO(e audit.Entry) AuditLogDTO {
	return AuditLogDTO{
		ID:          e.ID,
		Action:      e.Action,
		EntityName:  e.EntityName,
		EntityID:    e.EntityID,
		PerformedBy: e.PerformedBy,
		Details:     e.Details,
		CreatedAt:   e.CreatedAt,
	}
}

func toNotificationDTO(n *notification.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID(),
		Title:     n.Title(),
		Message:   n.Message(),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
}

// CarDTO is the response representation of a car.
type CarDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Brand              string          `json:"brand"`
	RegistrationNumber string          `json:"registration_number"`
	Category           string          `json:"category"`
	DailyRate          decimal.Decimal `json:"daily_rate"`
	Status             string          `json:"status"`
	Active             bool            `json:"active"`
}

// StaffDTO is the response representation of a staff member.
type StaffDTO struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name"`
	IsDriver     bool      `json:"is_driver"`
	Availability string    `json:"availability"`
}

// MaintenanceDTO is the response representation of a maintenance job.
type MaintenanceDTO struct {
	ID          uuid.UUID       `json:"id"`
	CarID       uuid.UUID       `json:"car_id"`
	ReportedBy  uuid.UUID       `json:"reported_by"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Status      string          `json:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func toCarDTO(c *fleet.Car) CarDTO {
	return CarDTO{
		ID:                 c.ID(),
		Name:               c.Name(),
		Brand:              c.Brand(),
		RegistrationNumber: c.RegistrationNumber(),
		Category:           c.Category(),
		DailyRate:          c.DailyRate(),
		Status:             string(c.Status()),
		Active:             c.IsActive(),
	}
}

func toStaffDTO(s *fleet.Staff) StaffDTO {
	return StaffDTO{
		ID:           s.ID(),
		UserID:       s.UserID(),
		FullName:     s.FullName(),
		IsDriver:     s.IsDriver(),
		Availability: string(s.Availability()),
	}
}

func toMaintenanceDTO(m *fleet.Maintenance) MaintenanceDTO {
	return MaintenanceDTO{
		ID:          m.ID(),
		CarID:       m.CarID(),
		ReportedBy:  m.ReportedBy(),
		Type:        m.Type(),
		Description: m.Description(),
		StartDate:   m.StartDate(),
		EndDate:     m.EndDate(),
		Cost:        m.Cost(),
		Status:      string(m.Status()),
		CompletedAt: m.CompletedAt(),
	}
}
