package member

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("member: id is required")
	ErrEmailRequired       = errors.New("member: email is required")
	ErrNameRequired        = errors.New("member: name is required")
	ErrPasswordHashMissing = errors.New("member: password hash is required")
	ErrEmailAlreadyUsed    = errors.New("member: email already used")
	ErrNotFound            = errors.New("member: not found")
	ErrInsufficientPoints  = errors.New("member: not enough loyalty points")
)

type MemberID string

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type Member struct {
	ID            MemberID
	Email         string
	Name          string
	Phone         string
	LicenceNumber string
	PasswordHash  string
	Roles         []Role
	LoyaltyPoints int64
	Blocked       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	ByID(ctx context.Context, id MemberID) (*Member, error)
	ByEmail(ctx context.Context, email string) (*Member, error)
	Save(ctx context.Context, member *Member) error
}

type CreateParams struct {
	ID            MemberID
	Email         string
	Name          string
	Phone         string
	LicenceNumber string
	PasswordHash  string
	Roles         []Role
	CreatedAt     time.Time
}

func NewMember(params CreateParams) (*Member, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	roles := append([]Role(nil), params.Roles...)
	if len(roles) == 0 {
		roles = []Role{RoleMember}
	}
	return &Member{
		ID:            MemberID(id),
		Email:         email,
		Name:          name,
		Phone:         strings.TrimSpace(params.Phone),
		LicenceNumber: strings.TrimSpace(params.LicenceNumber),
		PasswordHash:  params.PasswordHash,
		Roles:         roles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (m *Member) UpdateProfile(name, phone, licence string, now time.Time) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameRequired
	}
	m.Name = trimmed
	m.Phone = strings.TrimSpace(phone)
	m.LicenceNumber = strings.TrimSpace(licence)
	m.touch(now)
	return nil
}

// RedeemPoints deducts loyalty points used as a booking discount.
func (m *Member) RedeemPoints(points int64, now time.Time) error {
	if points <= 0 {
		return nil
	}
	if points > m.LoyaltyPoints {
		return ErrInsufficientPoints
	}
	m.LoyaltyPoints -= points
	m.touch(now)
	return nil
}

// AwardPoints credits loyalty points after a completed rental.
func (m *Member) AwardPoints(points int64, now time.Time) {
	if points <= 0 {
		return
	}
	m.LoyaltyPoints += points
	m.touch(now)
}

func (m *Member) HasRole(role Role) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (m *Member) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	m.UpdatedAt = now.UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
