package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
	"fleetrent/internal/domain/shared/events"
	domaininterval "fleetrent/internal/domain/shared/interval"
)

// VehicleRepository is an in-memory fleet store for demo and test runs.
type VehicleRepository struct {
	mu    sync.RWMutex
	items map[domainfleet.VehicleID]*domainfleet.Vehicle
}

func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{items: make(map[domainfleet.VehicleID]*domainfleet.Vehicle)}
}

func (r *VehicleRepository) ByID(ctx context.Context, id domainfleet.VehicleID) (*domainfleet.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vehicle, ok := r.items[id]
	if !ok {
		return nil, domainfleet.ErrVehicleNotFound
	}
	return cloneVehicle(vehicle), nil
}

func (r *VehicleRepository) Save(ctx context.Context, vehicle *domainfleet.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	vehicle.Version++
	r.items[vehicle.ID] = cloneVehicle(vehicle)
	return nil
}

// Search applies the conjunctive filters and returns matches ordered by daily
// rate ascending, cheapest first.
func (r *VehicleRepository) Search(ctx context.Context, params domainfleet.SearchParams) ([]*domainfleet.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainfleet.Vehicle, 0, len(r.items))
	for _, vehicle := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		if !opts.Matches(vehicle) {
			continue
		}
		matches = append(matches, cloneVehicle(vehicle))
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DailyRate.Amount == matches[j].DailyRate.Amount {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].DailyRate.Amount < matches[j].DailyRate.Amount
	})
	return matches, nil
}

func cloneVehicle(v *domainfleet.Vehicle) *domainfleet.Vehicle {
	if v == nil {
		return nil
	}
	copyVehicle := *v
	copyVehicle.Photos = append([]string(nil), v.Photos...)
	// Stored copies never carry unpublished events.
	copyVehicle.EventRecorder = events.EventRecorder{}
	return &copyVehicle
}

// BookingRepository stores bookings in memory. Insert holds the write lock
// across the overlap re-check and the append, which is what makes the
// check-and-act atomic for concurrent callers.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Insert(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlapsLocked(booking.VehicleID, booking.Interval, domainbooking.BlockingStatuses(), booking.ID) {
		return domainbooking.ErrConflict
	}
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) ListByMember(ctx context.Context, memberID domainmember.MemberID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.MemberID == memberID {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListByVehicle(ctx context.Context, vehicleID domainfleet.VehicleID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.VehicleID != vehicleID {
			continue
		}
		if len(statuses) > 0 && !statusIncluded(booking.Status, statuses) {
			continue
		}
		matches = append(matches, cloneBooking(booking))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Interval.Start.Before(matches[j].Interval.Start)
	})
	return matches, nil
}

func (r *BookingRepository) OverlappingExists(ctx context.Context, vehicleID domainfleet.VehicleID, iv domaininterval.Interval, statuses []domainbooking.Status) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapsLocked(vehicleID, iv, statuses, ""), nil
}

func (r *BookingRepository) CountByStatus(ctx context.Context) (map[domainbooking.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[domainbooking.Status]int)
	for _, booking := range r.items {
		counts[booking.Status]++
	}
	return counts, nil
}

func (r *BookingRepository) Revenue(ctx context.Context, statuses []domainbooking.Status) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	revenue := make(map[string]int64)
	for _, booking := range r.items {
		if len(statuses) > 0 && !statusIncluded(booking.Status, statuses) {
			continue
		}
		revenue[booking.Cost.Total.Currency] += booking.Cost.Total.Amount
	}
	return revenue, nil
}

func (r *BookingRepository) overlapsLocked(vehicleID domainfleet.VehicleID, iv domaininterval.Interval, statuses []domainbooking.Status, exclude domainbooking.BookingID) bool {
	for _, booking := range r.items {
		if booking.VehicleID != vehicleID || booking.ID == exclude {
			continue
		}
		if !statusIncluded(booking.Status, statuses) {
			continue
		}
		if booking.Interval.Overlaps(iv) {
			return true
		}
	}
	return false
}

func statusIncluded(status domainbooking.Status, allowed []domainbooking.Status) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copyBooking := *b
	copyBooking.EventRecorder = events.EventRecorder{}
	return &copyBooking
}

var (
	_ domainfleet.Repository   = (*VehicleRepository)(nil)
	_ domainbooking.Repository = (*BookingRepository)(nil)
)
