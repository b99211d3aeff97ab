package allocation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// ExtensionStatus is the review state of an extension request.
type ExtensionStatus string

const (
	ExtensionPending  ExtensionStatus = "Pending"
	ExtensionApproved ExtensionStatus = "Approved"
	ExtensionRejected ExtensionStatus = "Rejected"
)

// ParseExtensionStatus converts a stored status.
func ParseExtensionStatus(s string) (ExtensionStatus, error) {
	switch ExtensionStatus(s) {
	case ExtensionPending, ExtensionApproved, ExtensionRejected:
		return ExtensionStatus(s), nil
	}
	return "", domain.NewValidationError("invalid extension status: " + s)
}

// ExtensionRequest asks to move a booking's end date later.
type ExtensionRequest struct {
	id           uuid.UUID
	bookingID    uuid.UUID
	requestedBy  uuid.UUID
	previousEnd  time.Time
	newEndDate   time.Time
	reason       string
	status       ExtensionStatus
	requestDate  time.Time
	reviewedBy   *uuid.UUID
	reviewedAt   *time.Time
	autoApproved bool
}

// NewExtensionRequest validates a request against the booking's current end date.
func NewExtensionRequest(bookingID, requestedBy uuid.UUID, currentEnd, newEnd time.Time, reason string) (*ExtensionRequest, error) {
	if newEnd.IsZero() {
		return nil, domain.NewFieldValidationError("new_end_date", "new end date is required")
	}
	newEnd = booking.DateOf(newEnd)
	if !newEnd.After(booking.DateOf(currentEnd)) {
		return nil, domain.NewFieldValidationError("new_end_date", "new end date must be after the current end date")
	}
	return &ExtensionRequest{
		id:          uuid.New(),
		bookingID:   bookingID,
		requestedBy: requestedBy,
		previousEnd: booking.DateOf(currentEnd),
		newEndDate:  newEnd,
		reason:      strings.TrimSpace(reason),
		status:      ExtensionPending,
		requestDate: time.Now().UTC(),
	}, nil
}

// ReconstructExtensionParams carries persisted extension state.
type ReconstructExtensionParams struct {
	ID           uuid.UUID
	BookingID    uuid.UUID
	RequestedBy  uuid.UUID
	PreviousEnd  time.Time
	NewEndDate   time.Time
	Reason       string
	Status       ExtensionStatus
	RequestDate  time.Time
	ReviewedBy   *uuid.UUID
	ReviewedAt   *time.Time
	AutoApproved bool
}

// ReconstructExtensionRequest rebuilds an ExtensionRequest from persistence.
func ReconstructExtensionRequest(p ReconstructExtensionParams) *ExtensionRequest {
	return &ExtensionRequest{
		id:           p.ID,
		bookingID:    p.BookingID,
		requestedBy:  p.RequestedBy,
		previousEnd:  booking.DateOf(p.PreviousEnd),
		newEndDate:   booking.DateOf(p.NewEndDate),
		reason:       p.Reason,
		status:       p.Status,
		requestDate:  p.RequestDate,
		reviewedBy:   p.ReviewedBy,
		reviewedAt:   p.ReviewedAt,
		autoApproved: p.AutoApproved,
	}
}

func (e *ExtensionRequest) ID() uuid.UUID           { return e.id }
func (e *ExtensionRequest) BookingID() uuid.UUID    { return e.bookingID }
func (e *ExtensionRequest) RequestedBy() uuid.UUID  { return e.requestedBy }
func (e *ExtensionRequest) PreviousEnd() time.Time  { return e.previousEnd }
func (e *ExtensionRequest) NewEndDate() time.Time   { return e.newEndDate }
func (e *ExtensionRequest) Reason() string          { return e.reason }
func (e *ExtensionRequest) Status() ExtensionStatus { return e.status }
func (e *ExtensionRequest) RequestDate() time.Time  { return e.requestDate }
func (e *ExtensionRequest) ReviewedBy() *uuid.UUID  { return e.reviewedBy }
func (e *ExtensionRequest) ReviewedAt() *time.Time  { return e.reviewedAt }
func (e *ExtensionRequest) AutoApproved() bool      { return e.autoApproved }

// AutoApprove approves the request without a reviewer because both resources are free.
func (e *ExtensionRequest) AutoApprove() error {
	if e.status != ExtensionPending {
		return domain.NewInvalidStateError(string(e.status), string(ExtensionApproved))
	}
	now := time.Now().UTC()
	e.status = ExtensionApproved
	e.autoApproved = true
	e.reviewedAt = &now
	return nil
}

// Review records a staff decision on a pending request.
func (e *ExtensionRequest) Review(approve bool, reviewerID uuid.UUID) error {
	target := ExtensionRejected
	if approve {
		target = ExtensionApproved
	}
	if e.status != ExtensionPending {
		return domain.NewInvalidStateError(string(e.status), string(target))
	}
	now := time.Now().UTC()
	e.status = target
	e.reviewedBy = &reviewerID
	e.reviewedAt = &now
	return nil
}
