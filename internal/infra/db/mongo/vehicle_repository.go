package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainfleet "fleetrent/internal/domain/fleet"
	"fleetrent/internal/domain/shared/money"
)

type VehicleRepository struct {
	col *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{col: db.Collection("agg_vehicle")}
}

func (r *VehicleRepository) ByID(ctx context.Context, id domainfleet.VehicleID) (*domainfleet.Vehicle, error) {
	var doc vehicleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainfleet.ErrVehicleNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *VehicleRepository) Save(ctx context.Context, v *domainfleet.Vehicle) error {
	doc := newVehicleDocument(v)
	filter := bson.M{"_id": doc.ID, "version": v.Version}
	doc.Version = v.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	v.Version = doc.Version
	return nil
}

// Search filters server-side where it is cheap and re-applies the domain
// predicate on the decoded aggregates so both backends agree exactly.
func (r *VehicleRepository) Search(ctx context.Context, params domainfleet.SearchParams) ([]*domainfleet.Vehicle, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.OnlyActive {
		filter["state"] = string(domainfleet.VehicleActive)
	}
	if !opts.IncludeUnflagged {
		filter["available"] = true
	}
	if opts.Category != "" {
		filter["category"] = string(opts.Category)
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "daily_rate", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	matches := make([]*domainfleet.Vehicle, 0)
	for cursor.Next(ctx) {
		var doc vehicleDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		vehicle := doc.toAggregate()
		if !opts.Matches(vehicle) {
			continue
		}
		matches = append(matches, vehicle)
	}
	return matches, cursor.Err()
}

type vehicleDocument struct {
	ID           string   `bson:"_id"`
	Plate        string   `bson:"plate"`
	Make         string   `bson:"make"`
	Model        string   `bson:"model"`
	Year         int      `bson:"year"`
	Category     string   `bson:"category"`
	Location     string   `bson:"location"`
	Fuel         string   `bson:"fuel"`
	Transmission string   `bson:"transmission"`
	Seats        int      `bson:"seats"`
	DailyRate    int64    `bson:"daily_rate"`
	HourlyRate   int64    `bson:"hourly_rate"`
	Deposit      int64    `bson:"deposit"`
	Currency     string   `bson:"currency"`
	Available    bool     `bson:"available"`
	State        string   `bson:"state"`
	Photos       []string `bson:"photos"`
	Mileage      int64    `bson:"mileage"`
	CreatedAt    int64    `bson:"created_at"`
	UpdatedAt    int64    `bson:"updated_at"`
	Version      int64    `bson:"version"`
}

func newVehicleDocument(v *domainfleet.Vehicle) vehicleDocument {
	return vehicleDocument{
		ID:           string(v.ID),
		Plate:        v.Plate,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		Category:     string(v.Category),
		Location:     v.Location,
		Fuel:         string(v.Fuel),
		Transmission: string(v.Transmission),
		Seats:        v.Seats,
		DailyRate:    v.DailyRate.Amount,
		HourlyRate:   v.HourlyRate.Amount,
		Deposit:      v.Deposit.Amount,
		Currency:     v.DailyRate.Currency,
		Available:    v.Available,
		State:        string(v.State),
		Photos:       v.Photos,
		Mileage:      v.Mileage,
		CreatedAt:    v.CreatedAt.UnixMilli(),
		UpdatedAt:    v.UpdatedAt.UnixMilli(),
		Version:      v.Version,
	}
}

func (d vehicleDocument) toAggregate() *domainfleet.Vehicle {
	cents := func(amount int64) money.Money {
		return money.Money{Amount: amount, Currency: d.Currency}
	}
	return &domainfleet.Vehicle{
		ID:           domainfleet.VehicleID(d.ID),
		Plate:        d.Plate,
		Make:         d.Make,
		Model:        d.Model,
		Year:         d.Year,
		Category:     domainfleet.Category(d.Category),
		Location:     d.Location,
		Fuel:         domainfleet.FuelType(d.Fuel),
		Transmission: domainfleet.Transmission(d.Transmission),
		Seats:        d.Seats,
		DailyRate:    cents(d.DailyRate),
		HourlyRate:   cents(d.HourlyRate),
		Deposit:      cents(d.Deposit),
		Available:    d.Available,
		State:        domainfleet.VehicleState(d.State),
		Photos:       d.Photos,
		Mileage:      d.Mileage,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

var _ domainfleet.Repository = (*VehicleRepository)(nil)
