package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/picktoride/service-rental/internal/platform/async"
)

// SideEffects fans out notifications, audit entries and events after a use case commits.
// Every call is best-effort and never reports failure to the caller.
type SideEffects struct {
	dispatcher *async.Dispatcher
	notifier   NotificationSink
	audit      AuditSink
	publisher  EventPublisher
	logger     *zap.Logger
}

// NewSideEffects creates a SideEffects. Any sink may be nil.
func NewSideEffects(
	dispatcher *async.Dispatcher,
	notifier NotificationSink,
	audit AuditSink,
	publisher EventPublisher,
	logger *zap.Logger,
) *SideEffects {
	return &SideEffects{
		dispatcher: dispatcher,
		notifier:   notifier,
		audit:      audit,
		publisher:  publisher,
		logger:     logger,
	}
}

// Notify sends one in-app message.
func (e *SideEffects) Notify(ctx context.Context, userID uuid.UUID, title, message string) {
	if e.notifier == nil || userID == uuid.Nil {
		return
	}
	e.dispatcher.Go(ctx, "notify", func(ctx context.Context) error {
		return e.notifier.Send(ctx, userID, title, message)
	})
}

// NotifyAll sends the same message to every user returned by recipients.
func (e *SideEffects) NotifyAll(ctx context.Context, recipients func(ctx context.Context) ([]uuid.UUID, error), title, message string) {
	if e.notifier == nil {
		return
	}
	e.dispatcher.Go(ctx, "notify_all", func(ctx context.Context) error {
		userIDs, err := recipients(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve recipients: %w", err)
		}
		var failed int
		for _, id := range userIDs {
			if err := e.notifier.Send(ctx, id, title, message); err != nil {
				failed++
				e.logger.Warn("failed to notify user", zap.String("user_id", id.String()), zap.Error(err))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d notifications failed", failed, len(userIDs))
		}
		return nil
	})
}

// Audit records an audit entry.
func (e *SideEffects) Audit(ctx context.Context, action, entityName, entityID string, performedBy uuid.UUID, details string) {
	if e.audit == nil {
		return
	}
	e.dispatcher.Go(ctx, "audit", func(ctx context.Context) error {
		return e.audit.Log(ctx, action, entityName, entityID, performedBy, details)
	})
}

// Publish sends a domain event to the bus.
func (e *SideEffects) Publish(ctx context.Context, topic, eventType, key string, data interface{}) {
	if e.publisher == nil {
		return
	}
	e.dispatcher.Go(ctx, "publish:"+eventType, func(ctx context.Context) error {
		return e.publisher.Publish(ctx, topic, eventType, key, data)
	})
}
