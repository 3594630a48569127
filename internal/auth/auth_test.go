package auth

import (
	"context"
	"scrim-manager/internal/config"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	s, err := NewService(&config.Config{
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
		SessionTTL:        time.Hour,
	}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestAuthenticate(t *testing.T) {
	s := newTestService(t)
	assert.True(t, s.Authenticate("admin", "hunter2"))
	assert.False(t, s.Authenticate("admin", "hunter3"))
	assert.False(t, s.Authenticate("root", "hunter2"))
}

func TestLoginValidateLogout(t *testing.T) {
	s := newTestService(t)

	_, _, err := s.Login("admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, expires, err := s.Login("admin", "hunter2")
	require.NoError(t, err)
	assert.Len(t, token, 32)
	assert.True(t, expires.After(time.Now()))
	assert.True(t, s.Validate(token))
	assert.False(t, s.Validate("forged"))
	assert.False(t, s.Validate(""))

	s.Logout(token)
	assert.False(t, s.Validate(token))
}

func TestSessionExpires(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token, _, err := s.Login("admin", "hunter2")
	require.NoError(t, err)
	assert.True(t, s.Validate(token))

	now = now.Add(2 * time.Hour)
	assert.False(t, s.Validate(token))
}

func TestLoginThrottled(t *testing.T) {
	s := newTestService(t)

	var throttled bool
	for i := 0; i < 20; i++ {
		_, _, err := s.Login("admin", "wrong")
		if err == ErrThrottled {
			throttled = true
			break
		}
	}
	assert.True(t, throttled)
}

func TestPlainPasswordIsHashed(t *testing.T) {
	s, err := NewService(&config.Config{AdminUsername: "op", AdminPassword: "pw"}, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, s.Authenticate("op", "pw"))

	_, err = NewService(&config.Config{AdminUsername: "op", AdminPasswordHash: "plaintext"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRoleContext(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsAdmin(ctx))
	assert.True(t, IsAdmin(WithAdmin(ctx)))
}
