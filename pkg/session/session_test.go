package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seostrategy-go/pkg/logger"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	file, err := NewEncryptedFileBackend(filepath.Join(dir, "files"), "correct horse battery staple", logger.Nop())
	require.NoError(t, err)

	db, err := NewSQLiteBackend(filepath.Join(dir, "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
		"sqlite": db,
	}
}

func TestTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewTokenStore(backend, logger.Nop())

			_, ok := s.AccessToken(ctx)
			assert.False(t, ok)
			assert.Equal(t, Anonymous, StateOf(ctx, s))

			require.NoError(t, s.SetTokens(ctx, "a", "b"))
			access, ok := s.AccessToken(ctx)
			assert.True(t, ok)
			assert.Equal(t, "a", access)
			refresh, ok := s.RefreshToken(ctx)
			assert.True(t, ok)
			assert.Equal(t, "b", refresh)
			assert.Equal(t, Authenticated, StateOf(ctx, s))

			cur, ok := s.Current(ctx)
			require.True(t, ok)
			assert.Equal(t, Session{AccessToken: "a", RefreshToken: "b"}, *cur)

			// Last writer wins.
			require.NoError(t, s.SetTokens(ctx, "a2", "b2"))
			access, _ = s.AccessToken(ctx)
			assert.Equal(t, "a2", access)

			require.NoError(t, s.ClearTokens(ctx))
			_, ok = s.AccessToken(ctx)
			assert.False(t, ok)
			_, ok = s.RefreshToken(ctx)
			assert.False(t, ok)
			assert.Equal(t, Anonymous, StateOf(ctx, s))

			// Clearing an empty store is fine.
			require.NoError(t, s.ClearTokens(ctx))
		})
	}
}

func TestTokenStore_RejectsHalfPair(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.SetTokens(context.Background(), "a", ""))
	assert.Error(t, s.SetTokens(context.Background(), "", "b"))
	_, ok := s.AccessToken(context.Background())
	assert.False(t, ok)
}

type failingBackend struct {
	*MemoryBackend
	failKey string
}

func (f *failingBackend) Save(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Save(ctx, key, value)
}

func TestTokenStore_RollsBackOnPartialWrite(t *testing.T) {
	ctx := context.Background()
	s := NewTokenStore(&failingBackend{MemoryBackend: NewMemoryBackend(), failKey: RefreshTokenKey}, logger.Nop())

	err := s.SetTokens(ctx, "a", "b")
	require.Error(t, err)
	_, ok := s.AccessToken(ctx)
	assert.False(t, ok)
}

func TestTokenStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = s.SetTokens(ctx, "a", "b")
			} else {
				_ = s.ClearTokens(ctx)
			}
			s.AccessToken(ctx)
		}(i)
	}
	wg.Wait()
}

func TestEncryptedFileBackend_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b1, err := NewEncryptedFileBackend(dir, "secret", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, b1.Save(ctx, AccessTokenKey, "tok"))

	raw, err := os.ReadFile(filepath.Join(dir, AccessTokenKey+".enc"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok")

	b2, err := NewEncryptedFileBackend(dir, "secret", logger.Nop())
	require.NoError(t, err)
	v, err := b2.Load(ctx, AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)

	wrong, err := NewEncryptedFileBackend(dir, "other", logger.Nop())
	require.NoError(t, err)
	_, err = wrong.Load(ctx, AccessTokenKey)
	assert.Error(t, err)

	_, err = b2.Load(ctx, RefreshTokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, b2.Save(ctx, "../escape", "x"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Open(Config{Backend: "file", Path: dir}, logger.Nop())
	assert.Error(t, err, "file backend needs a key")

	_, _, err = Open(Config{Backend: "redis"}, logger.Nop())
	assert.Error(t, err)

	s, closer, err := Open(Config{Backend: "sqlite", Path: dir}, logger.Nop())
	require.NoError(t, err)
	defer closer.Close()
	require.NoError(t, s.SetTokens(context.Background(), "x", "y"))
	_, err = os.Stat(filepath.Join(dir, "session.db"))
	assert.NoError(t, err)
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("server-only"))
	require.NoError(t, err)

	info, ok := Inspect(signed)
	require.True(t, ok)
	assert.Equal(t, "42", info.Subject)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.True(t, info.Expired(time.Now()))

	_, ok = Inspect("opaque-token")
	assert.False(t, ok)
	assert.False(t, TokenInfo{}.Expired(time.Now()))
}
