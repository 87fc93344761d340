package session

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/kvstore"
	"github.com/kbukum/ranchkit/logger"
)

// Store keys.
const (
	KeyToken = "auth_token"
	KeyUser  = "user"
)

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session persists the current token and identity.
type Session struct {
	store kvstore.Store
	now   func() time.Time
	log   *logger.Logger

	mu sync.Mutex
}

// New creates a Session over store.
func New(store kvstore.Store, opts ...Option) *Session {
	s := &Session{store: store, now: time.Now, log: logger.Get("session")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login validates token and stores it with the identity it carries.
func (s *Session) Login(ctx context.Context, token string) (Identity, error) {
	id, err := ParseToken(token, s.now())
	if err != nil {
		return Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return Identity{}, apperrors.Storage("save token", err)
	}
	if err := kvstore.SetJSON(ctx, s.store, KeyUser, id); err != nil {
		return Identity{}, apperrors.Storage("save user", err)
	}
	s.log.Info("session started", logger.Fields(logger.FieldUserID, id.UserID, "role", id.Role))
	return id, nil
}

// Logout removes the stored token and identity.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear(ctx)
}

func (s *Session) clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, KeyToken); err != nil {
		return apperrors.Storage("remove token", err)
	}
	if err := s.store.Remove(ctx, KeyUser); err != nil {
		return apperrors.Storage("remove user", err)
	}
	return nil
}

// Token returns the stored token, or an empty string when signed out. An
// expired token is removed and reported as TOKEN_EXPIRED. The signature
// matches httpclient.TokenFunc.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, _, err := s.current(ctx)
	if apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
		return "", nil
	}
	return token, err
}

// Identity returns the signed-in user, or UNAUTHORIZED when signed out.
func (s *Session) Identity(ctx context.Context) (Identity, error) {
	_, id, err := s.current(ctx)
	return id, err
}

// Authenticated reports whether a valid session is stored.
func (s *Session) Authenticated(ctx context.Context) bool {
	_, _, err := s.current(ctx)
	return err == nil
}

func (s *Session) current(ctx context.Context) (string, Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.Get(ctx, KeyToken)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", Identity{}, apperrors.Unauthorized("")
	}
	if err != nil {
		return "", Identity{}, apperrors.Storage("load token", err)
	}

	var id Identity
	found, err := kvstore.GetJSON(ctx, s.store, KeyUser, &id)
	if err != nil || !found {
		// Stored user is missing or unreadable; the token is authoritative.
		if id, err = ParseToken(token, s.now()); err != nil {
			return s.expire(ctx, err)
		}
	}
	if id.Expired(s.now()) {
		return s.expire(ctx, apperrors.TokenExpired())
	}
	return token, id, nil
}

func (s *Session) expire(ctx context.Context, cause error) (string, Identity, error) {
	if err := s.clear(ctx); err != nil {
		s.log.Warn("failed to clear session", logger.ErrorFields("clear", err))
	}
	s.log.Info("session ended", logger.Fields(logger.FieldError, cause.Error()))
	return "", Identity{}, cause
}
