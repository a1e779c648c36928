package types

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a requested date filter has its start after
// its end. It is the only caller-facing error in the core; everything else is
// recovered into the load report.
var ErrInvalidRange = errors.New("invalid range: start date after end date")

// DateRange is an inclusive calendar-day filter. A zero Start or End leaves
// that side unbounded; the zero DateRange matches everything.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Validate rejects ranges whose start day falls after their end day.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && dayOf(r.Start).After(dayOf(r.End)) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether t falls inside the range, compared at day
// granularity in UTC, both bounds inclusive.
func (r DateRange) Contains(t time.Time) bool {
	d := dayOf(t)
	if !r.Start.IsZero() && d.Before(dayOf(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(dayOf(r.End)) {
		return false
	}
	return true
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
