package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "fleetrent/internal/domain/booking"
	domainfleet "fleetrent/internal/domain/fleet"
	domainmember "fleetrent/internal/domain/member"
	domainpricing "fleetrent/internal/domain/pricing"
	domaininterval "fleetrent/internal/domain/shared/interval"
	"fleetrent/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col    *mongo.Collection
	guards *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		col:    db.Collection("agg_booking"),
		guards: db.Collection("vehicle_guard"),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Insert performs the atomic check-and-insert. The guard document update makes
// concurrent transactions touching the same vehicle conflict at commit, so the
// overlap count below cannot race with another insert for that vehicle.
func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	guardUpdate := bson.M{"$inc": bson.M{"seq": 1}}
	guardOpts := options.Update().SetUpsert(true)
	if _, err := r.guards.UpdateByID(ctx, string(b.VehicleID), guardUpdate, guardOpts); err != nil {
		return err
	}

	overlapping, err := r.OverlappingExists(ctx, b.VehicleID, b.Interval, domainbooking.BlockingStatuses())
	if err != nil {
		return err
	}
	if overlapping {
		return domainbooking.ErrConflict
	}

	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConflict
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByMember(ctx context.Context, memberID domainmember.MemberID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"member_id": string(memberID)}, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cursor)
}

func (r *BookingRepository) ListByVehicle(ctx context.Context, vehicleID domainfleet.VehicleID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{"vehicle_id": string(vehicleID)}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusStrings(statuses)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "interval.start", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cursor)
}

// OverlappingExists matches closed intervals: two bookings conflict when
// existing.start <= candidate.end AND existing.end >= candidate.start, so a
// booking ending exactly when another starts still counts as a conflict.
func (r *BookingRepository) OverlappingExists(ctx context.Context, vehicleID domainfleet.VehicleID, iv domaininterval.Interval, statuses []domainbooking.Status) (bool, error) {
	filter := bson.M{
		"vehicle_id":     string(vehicleID),
		"status":         bson.M{"$in": statusStrings(statuses)},
		"interval.start": bson.M{"$lte": iv.End.UnixMilli()},
		"interval.end":   bson.M{"$gte": iv.Start.UnixMilli()},
	}
	count, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookingRepository) CountByStatus(ctx context.Context) (map[domainbooking.Status]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[domainbooking.Status]int)
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[domainbooking.Status(row.Status)] = row.Count
	}
	return counts, cursor.Err()
}

func (r *BookingRepository) Revenue(ctx context.Context, statuses []domainbooking.Status) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$in": statusStrings(statuses)}}}},
		{{Key: "$group", Value: bson.M{"_id": "$cost.currency", "total": bson.M{"$sum": "$cost.total"}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	revenue := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Currency string `bson:"_id"`
			Total    int64  `bson:"total"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		revenue[row.Currency] = row.Total
	}
	return revenue, cursor.Err()
}

func decodeBookings(ctx context.Context, cursor *mongo.Cursor) ([]*domainbooking.Booking, error) {
	defer cursor.Close(ctx)
	out := make([]*domainbooking.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func statusStrings(statuses []domainbooking.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

type bookingDocument struct {
	ID        string           `bson:"_id"`
	VehicleID string           `bson:"vehicle_id"`
	MemberID  string           `bson:"member_id"`
	Interval  intervalDocument `bson:"interval"`
	Status    string           `bson:"status"`
	Cost      costDocument     `bson:"cost"`
	CreatedAt int64            `bson:"created_at"`
	UpdatedAt int64            `bson:"updated_at"`
	Version   int64            `bson:"version"`
}

type intervalDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type costDocument struct {
	Days      int    `bson:"days"`
	DailyRate int64  `bson:"daily_rate"`
	Base      int64  `bson:"base"`
	Insurance int64  `bson:"insurance"`
	Tax       int64  `bson:"tax"`
	Deposit   int64  `bson:"deposit"`
	Discount  int64  `bson:"discount"`
	Total     int64  `bson:"total"`
	Currency  string `bson:"currency"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		VehicleID: string(b.VehicleID),
		MemberID:  string(b.MemberID),
		Interval:  intervalDocument{Start: b.Interval.Start.UnixMilli(), End: b.Interval.End.UnixMilli()},
		Status:    string(b.Status),
		Cost: costDocument{
			Days:      b.Cost.Days,
			DailyRate: b.Cost.DailyRate.Amount,
			Base:      b.Cost.Base.Amount,
			Insurance: b.Cost.Insurance.Amount,
			Tax:       b.Cost.Tax.Amount,
			Deposit:   b.Cost.Deposit.Amount,
			Discount:  b.Cost.Discount.Amount,
			Total:     b.Cost.Total.Amount,
			Currency:  b.Cost.Total.Currency,
		},
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	currency := d.Cost.Currency
	cents := func(amount int64) money.Money {
		return money.Money{Amount: amount, Currency: currency}
	}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		VehicleID: domainfleet.VehicleID(d.VehicleID),
		MemberID:  domainmember.MemberID(d.MemberID),
		Interval:  domaininterval.Interval{Start: timestampToTime(d.Interval.Start), End: timestampToTime(d.Interval.End)},
		Status:    domainbooking.Status(d.Status),
		Cost: domainpricing.CostBreakdown{
			Days:      d.Cost.Days,
			DailyRate: cents(d.Cost.DailyRate),
			Base:      cents(d.Cost.Base),
			Insurance: cents(d.Cost.Insurance),
			Tax:       cents(d.Cost.Tax),
			Deposit:   cents(d.Cost.Deposit),
			Discount:  cents(d.Cost.Discount),
			Total:     cents(d.Cost.Total),
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
