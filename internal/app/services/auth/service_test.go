package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "fleetrent/internal/domain/auth"
	domainmember "fleetrent/internal/domain/member"
	"fleetrent/internal/infra/security"
	"fleetrent/internal/infra/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.MemberRepository) {
	t.Helper()
	members := memory.NewMemberRepository()
	return &Service{
		Members:    members,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}, members
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, _ := newService(t)

		result, err := svc.Register(ctx, RegisterParams{
			Email:    "Jane@Example.com",
			Name:     "Jane Doe",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "jane@example.com", result.Member.Email, "email is normalized")
		assert.Equal(t, []domainmember.Role{domainmember.RoleMember}, result.Member.Roles)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Register(ctx, RegisterParams{Email: "a@b.com", Name: "A", Password: "short"})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Register(ctx, RegisterParams{Email: "a@b.com", Name: "A", Password: "correct-horse"})
		require.NoError(t, err)
		_, err = svc.Register(ctx, RegisterParams{Email: "A@B.com", Name: "B", Password: "correct-horse"})
		assert.ErrorIs(t, err, domainmember.ErrEmailAlreadyUsed)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T) (*Service, *memory.MemberRepository) {
		svc, members := newService(t)
		_, err := svc.Register(ctx, RegisterParams{Email: "jane@example.com", Name: "Jane", Password: "correct-horse"})
		require.NoError(t, err)
		return svc, members
	}

	t.Run("Success", func(t *testing.T) {
		svc, _ := register(t)

		result, err := svc.Login(ctx, LoginParams{Email: "jane@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc, _ := register(t)

		_, err := svc.Login(ctx, LoginParams{Email: "jane@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		svc, _ := register(t)

		_, err := svc.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("BlockedMember", func(t *testing.T) {
		svc, members := register(t)

		mem, err := members.ByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		mem.Blocked = true
		require.NoError(t, members.Save(ctx, mem))

		_, err = svc.Login(ctx, LoginParams{Email: "jane@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, ErrMemberBlocked)
	})
}

func TestResolveToken(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidToken", func(t *testing.T) {
		svc, _ := newService(t)
		reg, err := svc.Register(ctx, RegisterParams{Email: "jane@example.com", Name: "Jane", Password: "correct-horse"})
		require.NoError(t, err)

		resolved, err := svc.ResolveToken(ctx, reg.Token)
		require.NoError(t, err)
		assert.Equal(t, reg.Member.ID, resolved.Member.ID)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.ResolveToken(ctx, "bogus")
		assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	})

	t.Run("BlockedMemberSessionsRevoked", func(t *testing.T) {
		svc, members := newService(t)
		reg, err := svc.Register(ctx, RegisterParams{Email: "jane@example.com", Name: "Jane", Password: "correct-horse"})
		require.NoError(t, err)

		mem, err := members.ByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		mem.Blocked = true
		require.NoError(t, members.Save(ctx, mem))

		_, err = svc.ResolveToken(ctx, reg.Token)
		assert.ErrorIs(t, err, ErrMemberBlocked)

		// The blocked member's sessions are gone; a later lookup misses entirely.
		_, err = svc.ResolveToken(ctx, reg.Token)
		assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	reg, err := svc.Register(ctx, RegisterParams{Email: "jane@example.com", Name: "Jane", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, reg.Token))

	_, err = svc.ResolveToken(ctx, reg.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
