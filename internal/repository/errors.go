package repository

import (
	"fmt"
	"strings"

	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// translateWriteError maps constraint violations raised by Postgres to domain errors.
// Exclusion constraints guard the no-overlap rule for cars and drivers; the unique
// index on booking_code and primary keys surface as conflicts.
func translateWriteError(err error, op, entityID string) error {
	switch {
	case database.IsExclusionViolation(err):
		resource := "car"
		if strings.Contains(database.ConstraintName(err), "driver") {
			resource = "driver"
		}
		return domain.NewResourceUnavailableError(resource, entityID)
	case database.IsUniqueViolation(err):
		return domain.NewConflictError(fmt.Sprintf("%s: %s already exists", op, constraintSubject(database.ConstraintName(err))))
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func constraintSubject(constraint string) string {
	switch {
	case strings.Contains(constraint, "booking_code"):
		return "booking code"
	case strings.Contains(constraint, "registration"):
		return "registration number"
	case strings.Contains(constraint, "user_id"):
		return "staff record for user"
	case constraint == "":
		return "record"
	default:
		return constraint
	}
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
