package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainmember "fleetrent/internal/domain/member"
)

type MemberRepository struct {
	col *mongo.Collection
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	col := db.Collection("agg_member")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MemberRepository{col: col}
}

func (r *MemberRepository) ByID(ctx context.Context, id domainmember.MemberID) (*domainmember.Member, error) {
	var doc memberDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainmember.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *MemberRepository) ByEmail(ctx context.Context, email string) (*domainmember.Member, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	var doc memberDocument
	if err := r.col.FindOne(ctx, bson.M{"email": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainmember.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *MemberRepository) Save(ctx context.Context, m *domainmember.Member) error {
	doc := newMemberDocument(m)
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	if _, err := r.col.UpdateByID(ctx, doc.ID, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainmember.ErrEmailAlreadyUsed
		}
		return err
	}
	return nil
}

type memberDocument struct {
	ID            string   `bson:"_id"`
	Email         string   `bson:"email"`
	Name          string   `bson:"name"`
	Phone         string   `bson:"phone"`
	LicenceNumber string   `bson:"licence_number"`
	PasswordHash  string   `bson:"password_hash"`
	Roles         []string `bson:"roles"`
	LoyaltyPoints int64    `bson:"loyalty_points"`
	Blocked       bool     `bson:"blocked"`
	CreatedAt     int64    `bson:"created_at"`
	UpdatedAt     int64    `bson:"updated_at"`
}

func newMemberDocument(m *domainmember.Member) memberDocument {
	roles := make([]string, len(m.Roles))
	for i, role := range m.Roles {
		roles[i] = string(role)
	}
	return memberDocument{
		ID:            string(m.ID),
		Email:         strings.ToLower(strings.TrimSpace(m.Email)),
		Name:          m.Name,
		Phone:         m.Phone,
		LicenceNumber: m.LicenceNumber,
		PasswordHash:  m.PasswordHash,
		Roles:         roles,
		LoyaltyPoints: m.LoyaltyPoints,
		Blocked:       m.Blocked,
		CreatedAt:     m.CreatedAt.UnixMilli(),
		UpdatedAt:     m.UpdatedAt.UnixMilli(),
	}
}

func (d memberDocument) toAggregate() *domainmember.Member {
	roles := make([]domainmember.Role, len(d.Roles))
	for i, role := range d.Roles {
		roles[i] = domainmember.Role(role)
	}
	return &domainmember.Member{
		ID:            domainmember.MemberID(d.ID),
		Email:         d.Email,
		Name:          d.Name,
		Phone:         d.Phone,
		LicenceNumber: d.LicenceNumber,
		PasswordHash:  d.PasswordHash,
		Roles:         roles,
		LoyaltyPoints: d.LoyaltyPoints,
		Blocked:       d.Blocked,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
	}
}

var _ domainmember.Repository = (*MemberRepository)(nil)
