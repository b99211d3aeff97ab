package allocation

import (
	"context"

	"github.com/google/uuid"
)

// HandOverRepository persists handover records.
type HandOverRepository interface {
	Save(ctx context.Context, record *HandOverRecord) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*HandOverRecord, error)
}

// ReturnRepository persists return records.
type ReturnRepository interface {
	Save(ctx context.Context, record *ReturnRecord) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*ReturnRecord, error)
}

// ExtensionRepository persists extension requests.
type ExtensionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ExtensionRequest, error)
	// FindByIDForUpdate loads the request and holds its row lock until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ExtensionRequest, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*ExtensionRequest, error)
	ListPending(ctx context.Context, page, limit int) ([]*ExtensionRequest, int64, error)
	Save(ctx context.Context, req *ExtensionRequest) error
	Update(ctx context.Context, req *ExtensionRequest) error
}
