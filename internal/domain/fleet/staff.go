package fleet

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// Availability is a staff member's duty state.
type Availability string

const (
	AvailabilityAvailable   Availability = "Available"
	AvailabilityOnDuty      Availability = "OnDuty"
	AvailabilityUnavailable Availability = "Unavailable"
)

// ParseAvailability converts stored availability values, tolerating "On Duty".
func ParseAvailability(s string) (Availability, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	for _, known := range []Availability{AvailabilityAvailable, AvailabilityOnDuty, AvailabilityUnavailable} {
		if strings.EqualFold(normalized, string(known)) {
			return known, nil
		}
	}
	return "", domain.NewValidationError("invalid availability: " + s)
}

// Staff is a member of staff; drivers are staff with IsDriver set.
type Staff struct {
	id           uuid.UUID
	userID       uuid.UUID
	fullName     string
	isDriver     bool
	availability Availability
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewStaff creates an available staff member linked to a user account.
func NewStaff(userID uuid.UUID, fullName string, isDriver bool) (*Staff, error) {
	if userID == uuid.Nil {
		return nil, domain.NewFieldValidationError("user_id", "user is required")
	}
	now := time.Now().UTC()
	return &Staff{
		id:           uuid.New(),
		userID:       userID,
		fullName:     strings.TrimSpace(fullName),
		isDriver:     isDriver,
		availability: AvailabilityAvailable,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructStaff rebuilds a Staff from persistence data (no validation).
func ReconstructStaff(
	id, userID uuid.UUID,
	fullName string,
	isDriver bool,
	availability Availability,
	version int64,
	createdAt, updatedAt time.Time,
) *Staff {
	return &Staff{
		id:           id,
		userID:       userID,
		fullName:     fullName,
		isDriver:     isDriver,
		availability: availability,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (s *Staff) ID() uuid.UUID              { return s.id }
func (s *Staff) UserID() uuid.UUID          { return s.userID }
func (s *Staff) FullName() string           { return s.fullName }
func (s *Staff) IsDriver() bool             { return s.isDriver }
func (s *Staff) Availability() Availability { return s.availability }
func (s *Staff) Version() int64             { return s.version }
func (s *Staff) CreatedAt() time.Time       { return s.createdAt }
func (s *Staff) UpdatedAt() time.Time       { return s.updatedAt }

// CanDrive reports whether the staff member may be assigned to a booking.
func (s *Staff) CanDrive() bool {
	return s.isDriver && s.availability != AvailabilityUnavailable
}

// AssignDuty marks the driver as committed to a confirmed booking.
func (s *Staff) AssignDuty() error {
	if !s.CanDrive() {
		return domain.NewInvalidStateError(string(s.availability), string(AvailabilityOnDuty))
	}
	s.setAvailability(AvailabilityOnDuty)
	return nil
}

// Release returns an on-duty driver to the pool. Unavailable staff stay unavailable.
func (s *Staff) Release() bool {
	if s.availability != AvailabilityOnDuty {
		return false
	}
	s.setAvailability(AvailabilityAvailable)
	return true
}

// SetUnavailable takes the staff member off the roster.
func (s *Staff) SetUnavailable() {
	s.setAvailability(AvailabilityUnavailable)
}

func (s *Staff) setAvailability(a Availability) {
	s.availability = a
	s.version++
	s.updatedAt = time.Now().UTC()
}
