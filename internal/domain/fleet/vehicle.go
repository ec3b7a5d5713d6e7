package fleet

import (
	"context"
	"errors"
	"strings"
	"time"

	"fleetrent/internal/domain/shared/events"
	"fleetrent/internal/domain/shared/money"
)

var (
	ErrVehicleNotFound    = errors.New("fleet: vehicle not found")
	ErrVehicleUnavailable = errors.New("fleet: vehicle unavailable")
	ErrPlateRequired      = errors.New("fleet: licence plate is required")
	ErrMakeRequired       = errors.New("fleet: make and model are required")
	ErrInvalidSeats       = errors.New("fleet: seats must be at least 1")
	ErrInvalidRate        = errors.New("fleet: rates must be non-negative")
	ErrInvalidState       = errors.New("fleet: invalid state transition")
)

type VehicleID string

type VehicleState string

const (
	VehicleDraft   VehicleState = "DRAFT"
	VehicleActive  VehicleState = "ACTIVE"
	VehicleRetired VehicleState = "RETIRED"
)

type Category string

const (
	CategoryEconomy Category = "economy"
	CategoryCompact Category = "compact"
	CategorySUV     Category = "suv"
	CategoryLuxury  Category = "luxury"
	CategoryVan     Category = "van"
)

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelHybrid   FuelType = "hybrid"
	FuelElectric FuelType = "electric"
)

type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

type Vehicle struct {
	ID           VehicleID
	Plate        string
	Make         string
	Model        string
	Year         int
	Category     Category
	Location     string
	Fuel         FuelType
	Transmission Transmission
	Seats        int
	DailyRate    money.Money
	HourlyRate   money.Money
	Deposit      money.Money
	// Available is the operator-controlled flag; a false value takes a vehicle
	// out of every availability answer regardless of bookings.
	Available bool
	State     VehicleState
	Photos    []string
	Mileage   int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id VehicleID) (*Vehicle, error)
	Save(ctx context.Context, vehicle *Vehicle) error
	Search(ctx context.Context, params SearchParams) ([]*Vehicle, error)
}

type CreateParams struct {
	ID           VehicleID
	Plate        string
	Make         string
	Model        string
	Year         int
	Category     Category
	Location     string
	Fuel         FuelType
	Transmission Transmission
	Seats        int
	DailyRate    money.Money
	HourlyRate   money.Money
	Deposit      money.Money
	Mileage      int64
	Photos       []string
	Now          time.Time
}

func NewVehicle(params CreateParams) (*Vehicle, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("fleet: id is required")
	}
	if strings.TrimSpace(params.Plate) == "" {
		return nil, ErrPlateRequired
	}
	if strings.TrimSpace(params.Make) == "" || strings.TrimSpace(params.Model) == "" {
		return nil, ErrMakeRequired
	}
	if params.Seats < 1 {
		return nil, ErrInvalidSeats
	}
	if params.DailyRate.Amount < 0 || params.HourlyRate.Amount < 0 || params.Deposit.Amount < 0 {
		return nil, ErrInvalidRate
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	v := &Vehicle{
		ID:           params.ID,
		Plate:        strings.ToUpper(strings.TrimSpace(params.Plate)),
		Make:         strings.TrimSpace(params.Make),
		Model:        strings.TrimSpace(params.Model),
		Year:         params.Year,
		Category:     params.Category,
		Location:     strings.TrimSpace(params.Location),
		Fuel:         params.Fuel,
		Transmission: params.Transmission,
		Seats:        params.Seats,
		DailyRate:    params.DailyRate,
		HourlyRate:   params.HourlyRate,
		Deposit:      params.Deposit,
		Mileage:      params.Mileage,
		Photos:       append([]string(nil), params.Photos...),
		State:        VehicleDraft,
		Available:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	v.Record(VehicleRegistered{VehicleID: v.ID, Plate: v.Plate, At: now})
	return v, nil
}

// Activate publishes the vehicle to the rentable fleet.
func (v *Vehicle) Activate(now time.Time) error {
	if v.State == VehicleRetired {
		return ErrInvalidState
	}
	v.State = VehicleActive
	v.Available = true
	v.touch(now)
	v.Record(VehicleActivated{VehicleID: v.ID, At: v.UpdatedAt})
	return nil
}

// Retire removes the vehicle from service permanently.
func (v *Vehicle) Retire(now time.Time) error {
	if v.State != VehicleActive && v.State != VehicleDraft {
		return ErrInvalidState
	}
	v.State = VehicleRetired
	v.Available = false
	v.touch(now)
	v.Record(VehicleRetiredEvent{VehicleID: v.ID, At: v.UpdatedAt})
	return nil
}

// SetAvailable flips the operator availability flag (maintenance windows etc).
func (v *Vehicle) SetAvailable(available bool, now time.Time) {
	v.Available = available
	v.touch(now)
}

// UpdateRates changes pricing; negative values are rejected.
func (v *Vehicle) UpdateRates(daily, hourly, deposit money.Money, now time.Time) error {
	if daily.Amount < 0 || hourly.Amount < 0 || deposit.Amount < 0 {
		return ErrInvalidRate
	}
	v.DailyRate = daily
	v.HourlyRate = hourly
	v.Deposit = deposit
	v.touch(now)
	return nil
}

// AddPhoto appends an uploaded photo URL.
func (v *Vehicle) AddPhoto(url string, now time.Time) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	v.Photos = append(v.Photos, url)
	v.touch(now)
}

func (v *Vehicle) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	v.UpdatedAt = now.UTC()
}
