package booking

import (
	"errors"
	"time"

	"fleetrent/internal/domain/shared/interval"
)

var ErrPastPickup = errors.New("booking: pickup is in the past")

// PickupGrace tolerates clock skew and in-flight requests: a pickup up to this
// far in the past is still accepted.
const PickupGrace = time.Hour

// ValidateInterval rejects intervals whose pickup lies in the past beyond the
// grace window. Interval shape itself is validated by interval.New.
func ValidateInterval(iv interval.Interval, now time.Time) error {
	if iv.Start.Before(now.UTC().Add(-PickupGrace)) {
		return ErrPastPickup
	}
	return nil
}
