package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"seostrategy-go/pkg/logger"
)

// TokenStore implements Store on top of a Backend.
type TokenStore struct {
	backend Backend
	mu      sync.Mutex
	log     *logger.Logger
}

func NewTokenStore(backend Backend, log *logger.Logger) *TokenStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &TokenStore{backend: backend, log: log.Component("session_store")}
}

// NewMemoryStore is a TokenStore backed by process memory.
func NewMemoryStore() *TokenStore {
	return NewTokenStore(NewMemoryBackend(), logger.Nop())
}

func (s *TokenStore) AccessToken(ctx context.Context) (string, bool) {
	return s.get(ctx, AccessTokenKey)
}

func (s *TokenStore) RefreshToken(ctx context.Context) (string, bool) {
	return s.get(ctx, RefreshTokenKey)
}

func (s *TokenStore) get(ctx context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.backend.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).WithField("key", key).Warn("Failed to load session value")
		}
		return "", false
	}
	return v, v != ""
}

// SetTokens persists both tokens. If the second write fails the first is
// rolled back so the pair is never half-written.
func (s *TokenStore) SetTokens(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("session: both tokens are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(ctx, AccessTokenKey, access); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if err := s.backend.Save(ctx, RefreshTokenKey, refresh); err != nil {
		if delErr := s.backend.Delete(ctx, AccessTokenKey); delErr != nil {
			s.log.WithError(delErr).Warn("Failed to roll back access token")
		}
		return fmt.Errorf("save refresh token: %w", err)
	}
	s.log.Debug("Session tokens stored")
	return nil
}

// ClearTokens removes both tokens, attempting both deletes even if one fails.
func (s *TokenStore) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := errors.Join(
		s.backend.Delete(ctx, AccessTokenKey),
		s.backend.Delete(ctx, RefreshTokenKey),
	)
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	s.log.Debug("Session tokens cleared")
	return nil
}

// Current returns the stored session, if both tokens are present.
func (s *TokenStore) Current(ctx context.Context) (*Session, bool) {
	access, ok := s.AccessToken(ctx)
	if !ok {
		return nil, false
	}
	refresh, ok := s.RefreshToken(ctx)
	if !ok {
		return nil, false
	}
	return &Session{AccessToken: access, RefreshToken: refresh}, true
}
