package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app message for a user.
type Notification struct {
	id        uuid.UUID
	userID    uuid.UUID
	title     string
	message   string
	isRead    bool
	createdAt time.Time
}

// New creates an unread notification.
func New(userID uuid.UUID, title, message string) *Notification {
	return &Notification{
		id:        uuid.New(),
		userID:    userID,
		title:     title,
		message:   message,
		createdAt: time.Now().UTC(),
	}
}

// Reconstruct rebuilds a Notification from persistence.
func Reconstruct(id, userID uuid.UUID, title, message string, isRead bool, createdAt time.Time) *Notification {
	return &Notification{id: id, userID: userID, title: title, message: message, isRead: isRead, createdAt: createdAt}
}

func (n *Notification) ID() uuid.UUID        { return n.id }
func (n *Notification) UserID() uuid.UUID    { return n.userID }
func (n *Notification) Title() string        { return n.title }
func (n *Notification) Message() string      { return n.message }
func (n *Notification) IsRead() bool         { return n.isRead }
func (n *Notification) CreatedAt() time.Time { return n.createdAt }

// MarkRead flags the notification as read.
func (n *Notification) MarkRead() { n.isRead = true }

// Repository persists notifications.
type Repository interface {
	Save(ctx context.Context, n *Notification) error
	SaveAll(ctx context.Context, ns []*Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}
