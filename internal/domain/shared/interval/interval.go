package interval

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("interval: end must be after start")
)

// Interval is a pair of UTC instants bounding a rental period.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New normalizes both instants to UTC and rejects empty or inverted ranges.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return ErrInvalidInterval
	}
	if !iv.End.After(iv.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// Days truncates the span to whole 24-hour days. A 23-hour rental counts as
// zero days; partial days are never rounded up.
func (iv Interval) Days() int {
	return int(iv.End.Sub(iv.Start).Hours() / 24)
}

// Overlaps reports whether two intervals conflict. Bounds are treated as
// inclusive on both ends, so a booking ending at instant T conflicts with one
// starting at T. Back-to-back rentals are therefore rejected; changing this
// needs a product decision, not a code fix.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.contains(other.Start) || iv.contains(other.End) {
		return true
	}
	// other fully contains iv
	return !other.Start.After(iv.Start) && !iv.End.After(other.End)
}

// ContainsInstant reports whether t falls inside the closed interval.
func (iv Interval) ContainsInstant(t time.Time) bool {
	return iv.contains(t.UTC())
}

func (iv Interval) contains(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}
