package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/picktoride/service-rental/internal/domain/audit"
	"github.com/picktoride/service-rental/internal/domain/notification"
	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// NotificationModel is the GORM model for the notifications table.
type NotificationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"not null;size:200"`
	Message   string    `gorm:"type:text;not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (NotificationModel) TableName() string { return "notifications" }

// GormNotificationRepository implements notification.Repository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Save persists a notification.
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	model := toNotificationModel(n)
	return database.Conn(ctx, r.db).Create(&model).Error
}

// SaveAll persists notifications in one batch.
func (r *GormNotificationRepository) SaveAll(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	models := make([]NotificationModel, len(ns))
	for i, n := range ns {
		models[i] = toNotificationModel(n)
	}
	return database.Conn(ctx, r.db).Create(&models).Error
}

// FindByID returns a notification by ID.
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var model NotificationModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Notification", id.String())
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	return notification.Reconstruct(model.ID, model.UserID, model.Title, model.Message, model.IsRead, model.CreatedAt), nil
}

// FindByUserID returns a page of a user's notifications, newest first.
func (r *GormNotificationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]*notification.Notification, int64, error) {
	q := database.Conn(ctx, r.db).Model(&NotificationModel{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	var models []NotificationModel
	if err := q.Order("created_at DESC").Offset(offset(page, limit)).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*notification.Notification, len(models))
	for i, m := range models {
		out[i] = notification.Reconstruct(m.ID, m.UserID, m.Title, m.Message, m.IsRead, m.CreatedAt)
	}
	return out, total, nil
}

// MarkRead flags a notification as read.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return database.Conn(ctx, r.db).Model(&NotificationModel{}).Where("id = ?", id).Update("is_read", true).Error
}

func toNotificationModel(n *notification.Notification) NotificationModel {
	return NotificationModel{
		ID:        n.ID(),
		UserID:    n.UserID(),
		Title:     n.Title(),
		Message:   n.Message(),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
}

// AuditLogModel is the GORM model for the audit_logs table.
type AuditLogModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Action      string    `gorm:"not null;size:50"`
	EntityName  string    `gorm:"not null;size:50"`
	EntityID    string    `gorm:"not null;size:64;index"`
	PerformedBy uuid.UUID `gorm:"type:uuid"`
	Details     string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (AuditLogModel) TableName() string { return "audit_logs" }

// GormAuditRepository implements audit.Repository using GORM.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository.
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Save appends an audit entry.
func (r *GormAuditRepository) Save(ctx context.Context, e audit.Entry) error {
	model := AuditLogModel{
		ID:          e.ID,
		Action:      e.Action,
		EntityName:  e.EntityName,
		EntityID:    e.EntityID,
		PerformedBy: e.PerformedBy,
		Details:     e.Details,
		CreatedAt:   e.CreatedAt,
	}
	return database.Conn(ctx, r.db).Create(&model).Error
}

// FindByID returns one audit entry.
func (r *GormAuditRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Entry, error) {
	var model AuditLogModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("AuditLog", id.String())
		}
		return nil, fmt.Errorf("failed to find audit entry: %w", err)
	}
	e := toAuditEntry(model)
	return &e, nil
}

// List returns audit entries newest first, optionally narrowed to one entity.
func (r *GormAuditRepository) List(ctx context.Context, filter audit.Filter, page, limit int) ([]audit.Entry, int64, error) {
	q := database.Conn(ctx, r.db).Model(&AuditLogModel{})
	if filter.EntityName != "" {
		q = q.Where("entity_name = ?", filter.EntityName)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	var models []AuditLogModel
	if err := q.Order("created_at DESC").Offset(offset(page, limit)).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]audit.Entry, len(models))
	for i, m := range models {
		entries[i] = toAuditEntry(m)
	}
	return entries, total, nil
}

func toAuditEntry(m AuditLogModel) audit.Entry {
	return audit.Entry{
		ID:          m.ID,
		Action:      m.Action,
		EntityName:  m.EntityName,
		EntityID:    m.EntityID,
		PerformedBy: m.PerformedBy,
		Details:     m.Details,
		CreatedAt:   m.CreatedAt,
	}
}
