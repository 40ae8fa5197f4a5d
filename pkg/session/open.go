package session

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"seostrategy-go/pkg/logger"
)

type Config struct {
	Backend       string `mapstructure:"backend"` // memory, file or sqlite
	Path          string `mapstructure:"path"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the token store described by cfg. The returned closer
// releases the backend.
func Open(cfg Config, log *logger.Logger) (*TokenStore, io.Closer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewTokenStore(NewMemoryBackend(), log), nopCloser{}, nil
	case "file":
		if cfg.EncryptionKey == "" {
			return nil, nil, fmt.Errorf("session backend file requires an encryption key")
		}
		b, err := NewEncryptedFileBackend(cfg.Path, cfg.EncryptionKey, log)
		if err != nil {
			return nil, nil, err
		}
		return NewTokenStore(b, log), nopCloser{}, nil
	case "sqlite":
		path := cfg.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "session.db")
		}
		b, err := NewSQLiteBackend(path)
		if err != nil {
			return nil, nil, err
		}
		return NewTokenStore(b, log), b, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
