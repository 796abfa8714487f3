package booking

import (
	"math"
	"time"

	"github.com/hearthstay/service-booking/internal/common/domain"
)

// DateLayout is the calendar date format accepted and returned by the API.
const DateLayout = "2006-01-02"

// Stay is the requested date range. Dates are calendar days normalised to UTC midnight.
type Stay struct {
	start time.Time
	end   time.Time
}

// NewStay builds a stay and requires end to fall strictly after start.
func NewStay(start, end time.Time) (Stay, error) {
	s := Stay{start: truncateDay(start), end: truncateDay(end)}
	if !s.end.After(s.start) {
		return Stay{}, domain.NewValidationError("end_date must be after start_date")
	}
	return s, nil
}

// ReconstructStay rebuilds a stay from persistence data (no validation).
func ReconstructStay(start, end time.Time) Stay {
	return Stay{start: truncateDay(start), end: truncateDay(end)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Start returns the check-in date.
func (s Stay) Start() time.Time { return s.start }

// End returns the check-out date.
func (s Stay) End() time.Time { return s.end }

// Nights is the number of nights billed, rounding any partial day up.
func (s Stay) Nights() int64 {
	return int64(math.Ceil(s.end.Sub(s.start).Hours() / 24))
}

// Overlaps reports whether two stays share a day. Bounds are inclusive, so a stay
// checking out on the day another checks in still overlaps it.
func (s Stay) Overlaps(other Stay) bool {
	return !s.start.After(other.end) && !other.start.After(s.end)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
