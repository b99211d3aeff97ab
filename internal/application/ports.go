package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/domain/allocation"
	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/domain/fleet"
	"github.com/picktoride/service-rental/internal/domain/notification"
	"github.com/picktoride/service-rental/internal/domain/payment"
	"github.com/picktoride/service-rental/internal/platform/auth"
)

// TxManager runs fn inside one database transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NotificationSink delivers in-app messages to users.
type NotificationSink interface {
	Send(ctx context.Context, userID uuid.UUID, title, message string) error
}

// AuditSink records who did what to which entity.
type AuditSink interface {
	Log(ctx context.Context, action, entityName, entityID string, performedBy uuid.UUID, details string) error
}

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType, key string, data interface{}) error
}

// Stores groups the repositories the rental use cases read and write.
type Stores struct {
	Bookings      booking.BookingRepository
	Cars          fleet.CarRepository
	Staff         fleet.StaffRepository
	Schedules     fleet.DriverScheduleRepository
	Maintenance   fleet.MaintenanceRepository
	Extensions    allocation.ExtensionRepository
	HandOvers     allocation.HandOverRepository
	Returns       allocation.ReturnRepository
	Payments      payment.PaymentRepository
	Notifications notification.Repository
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID uuid.UUID
	Role   auth.Role
}

// IsStaff reports whether the actor is staff or admin.
func (a Actor) IsStaff() bool { return a.Role.IsStaff() }

// Clock returns the current time.
type Clock func() time.Time
