package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"fleetrent/internal/domain/member"
)

var (
	ErrTokenRequired   = errors.New("auth: token is required")
	ErrMemberRequired  = errors.New("auth: member is required")
	ErrTTLInvalid      = errors.New("auth: ttl must be positive")
	ErrSessionNotFound = errors.New("auth: session not found")
)

type Token string

type Session struct {
	Token     Token
	MemberID  member.MemberID
	Roles     []member.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token    Token
	MemberID member.MemberID
	Roles    []member.Role
	TTL      time.Duration
	Now      time.Time
}

func NewSession(params CreateSessionParams) (*Session, error) {
	token := strings.TrimSpace(string(params.Token))
	if token == "" {
		return nil, ErrTokenRequired
	}
	if strings.TrimSpace(string(params.MemberID)) == "" {
		return nil, ErrMemberRequired
	}
	if params.TTL <= 0 {
		return nil, ErrTTLInvalid
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Session{
		Token:     Token(token),
		MemberID:  params.MemberID,
		Roles:     append([]member.Role(nil), params.Roles...),
		CreatedAt: now,
		ExpiresAt: now.Add(params.TTL),
	}, nil
}

func (s *Session) Expired(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return !s.ExpiresAt.After(at.UTC())
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
	DeleteByMember(ctx context.Context, memberID member.MemberID) error
}
