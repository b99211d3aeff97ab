package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names recorded in the audit trail.
const (
	ActionCreate   = "Create"
	ActionUpdate   = "Update"
	ActionCancel   = "Cancel"
	ActionConfirm  = "Confirm"
	ActionHandOver = "HandOver"
	ActionReturn   = "Return"
	ActionExtend   = "ExtensionRequest"
	ActionReview   = "ExtensionReview"
	ActionPayment  = "Payment"
	ActionMaintain = "Maintenance"
)

// Entry is one audit log line.
type Entry struct {
	ID          uuid.UUID
	Action      string
	EntityName  string
	EntityID    string
	PerformedBy uuid.UUID
	Details     string
	CreatedAt   time.Time
}

// NewEntry stamps an audit entry.
func NewEntry(action, entityName, entityID string, performedBy uuid.UUID, details string) Entry {
	return Entry{
		ID:          uuid.New(),
		Action:      action,
		EntityName:  entityName,
		EntityID:    entityID,
		PerformedBy: performedBy,
		Details:     details,
		CreatedAt:   time.Now().UTC(),
	}
}

// Filter narrows an audit listing. Empty fields match everything.
type Filter struct {
	EntityName string
	EntityID   string
}

// Repository persists and reads audit entries.
type Repository interface {
	Save(ctx context.Context, e Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// List returns entries newest first.
	List(ctx context.Context, filter Filter, page, limit int) ([]Entry, int64, error)
}
