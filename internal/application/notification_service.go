package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/domain/audit"
	"github.com/picktoride/service-rental/internal/domain/notification"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// NotificationService stores in-app notifications and serves them to their owners.
// It is the NotificationSink used by the rental use cases.
type NotificationService struct {
	repo notification.Repository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo notification.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Send stores an unread notification for userID.
func (s *NotificationService) Send(ctx context.Context, userID uuid.UUID, title, message string) error {
	if err := s.repo.Save(ctx, notification.New(userID, title, message)); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) (*domain.PaginatedResult[NotificationDTO], error) {
	items, total, err := s.repo.FindByUserID(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]NotificationDTO, len(items))
	for i, n := range items {
		dtos[i] = toNotificationDTO(n)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID() != userID {
		return domain.NewForbiddenError("notification does not belong to this user")
	}
	if n.IsRead() {
		return nil
	}
	return s.repo.MarkRead(ctx, notificationID)
}

// AuditLogger writes audit entries. It is the AuditSink used by the rental use cases.
type AuditLogger struct {
	repo audit.Repository
}

// NewAuditLogger creates a new AuditLogger.
func NewAuditLogger(repo audit.Repository) *AuditLogger {
	return &AuditLogger{repo: repo}
}

// Log records one audit entry.
func (a *AuditLogger) Log(ctx context.Context, action, entityName, entityID string, performedBy uuid.UUID, details string) error {
	if err := a.repo.Save(ctx, audit.NewEntry(action, entityName, entityID, performedBy, details)); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// ListEntries returns audit entries newest first, optionally narrowed to one entity.
func (a *AuditLogger) ListEntries(ctx context.Context, entityName, entityID string, page, limit int) (*domain.PaginatedResult[AuditLogDTO], error) {
	entries, total, err := a.repo.List(ctx, audit.Filter{EntityName: entityName, EntityID: entityID}, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]AuditLogDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditLogDTO(e)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetEntry returns one audit entry.
func (a *AuditLogger) GetEntry(ctx context.Context, id uuid.UUID) (*AuditLogDTO, error) {
	e, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toAuditLogDTO(*e)
	return &dto, nil
}
