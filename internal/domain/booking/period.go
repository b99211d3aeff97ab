package booking

import (
	"fmt"
	"time"

	"github.com/picktoride/service-rental/internal/platform/domain"
)

// DateOf returns the calendar date of t (in t's own location) as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MaxRentalDays caps the billable length of a single rental, extensions included.
const MaxRentalDays = 365

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewPeriod normalizes start and end to dates and requires end to fall after start.
func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() {
		return Period{}, domain.NewFieldValidationError("start_date", "start date is required")
	}
	if end.IsZero() {
		return Period{}, domain.NewFieldValidationError("end_date", "end date is required")
	}
	p := Period{Start: DateOf(start), End: DateOf(end)}
	if !p.End.After(p.Start) {
		return Period{}, domain.NewFieldValidationError("end_date", "end date must be after start date")
	}
	if err := checkLength(p.Start, p.End, "end_date"); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Overlaps applies the closed-interval test: touching endpoints conflict.
func (p Period) Overlaps(start, end time.Time) bool {
	return !DateOf(start).After(p.End) && !DateOf(end).Before(p.Start)
}

// Days returns the billable day count, never less than one.
func (p Period) Days() int64 {
	return BillableDays(p.Start, p.End)
}

// BillableDays counts whole days between the calendar dates of start and end, minimum one.
func BillableDays(start, end time.Time) int64 {
	const secondsPerDay = 24 * 60 * 60
	days := (DateOf(end).Unix() - DateOf(start).Unix()) / secondsPerDay
	if days < 1 {
		return 1
	}
	return days
}

func checkLength(start, end time.Time, field string) error {
	if BillableDays(start, end) > MaxRentalDays {
		return domain.NewFieldValidationError(field, fmt.Sprintf("a rental cannot run longer than %d days", MaxRentalDays))
	}
	return nil
}
