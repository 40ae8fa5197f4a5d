package session

import (
	"context"
	"errors"
)

// Keys the token pair is persisted under.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// ErrNotFound is returned by a Backend when a key has no value.
var ErrNotFound = errors.New("session: key not found")

// Backend is persistent key-value storage for session values.
type Backend interface {
	Save(ctx context.Context, key, value string) error
	Load(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Store holds the access/refresh token pair. Implementations must be safe
// for concurrent use; writes are last-writer-wins.
type Store interface {
	AccessToken(ctx context.Context) (string, bool)
	RefreshToken(ctx context.Context) (string, bool)
	SetTokens(ctx context.Context, access, refresh string) error
	ClearTokens(ctx context.Context) error
}

// Session is an authenticated token pair.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// State is the client-side session lifecycle state.
type State string

const (
	Anonymous     State = "anonymous"
	Authenticated State = "authenticated"
)

// StateOf derives the lifecycle state from the store: Authenticated while an
// access token is held.
func StateOf(ctx context.Context, s Store) State {
	if s == nil {
		return Anonymous
	}
	if _, ok := s.AccessToken(ctx); ok {
		return Authenticated
	}
	return Anonymous
}
