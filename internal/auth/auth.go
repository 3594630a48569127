// Package auth gates operator-only operations behind a single admin account.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"scrim-manager/internal/config"
	"scrim-manager/internal/constants"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrThrottled          = errors.New("too many login attempts")
	ErrUnauthenticated    = errors.New("admin session required")
)

type Service struct {
	username string
	hash     []byte
	ttl      time.Duration
	limiter  *rate.Limiter
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewService(cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = constants.SessionTTL
	}

	return &Service{
		username: cfg.AdminUsername,
		hash:     hash,
		ttl:      ttl,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/constants.LoginRatePerMin), constants.LoginBurst),
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}, nil
}

// Authenticate reports whether the credentials belong to the operator.
func (s *Service) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.hash, []byte(password)) == nil
	return userOK && passOK
}

// Login exchanges credentials for a session token.
func (s *Service) Login(username, password string) (string, time.Time, error) {
	if !s.limiter.Allow() {
		s.logger.Warn().Str("username", username).Msg("login throttled")
		return "", time.Time{}, ErrThrottled
	}
	if !s.Authenticate(username, password) {
		s.logger.Warn().Str("username", username).Msg("login rejected")
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, err := gonanoid.New(constants.SessionTokenSize)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}
	expires := s.now().Add(s.ttl)

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[token] = expires
	s.mu.Unlock()

	s.logger.Info().Str("username", username).Time("expires_at", expires).Msg("admin logged in")
	return token, expires, nil
}

func (s *Service) Validate(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.sessions[token]
	if !ok {
		return false
	}
	if !s.now().Before(expires) {
		delete(s.sessions, token)
		return false
	}
	return true
}

func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Service) pruneLocked() {
	now := s.now()
	for token, expires := range s.sessions {
		if !now.Before(expires) {
			delete(s.sessions, token)
		}
	}
}

type contextKey string

const roleKey contextKey = "caller_role"

// WithAdmin marks the context as carrying an authenticated operator.
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, roleKey, true)
}

func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(roleKey).(bool)
	return admin
}
