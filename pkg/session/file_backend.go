package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"seostrategy-go/pkg/logger"
)

const saltFile = ".salt"

var validKey = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// EncryptedFileBackend stores each key as an AES-GCM sealed file in dir.
type EncryptedFileBackend struct {
	dir       string
	encryptor *AESEncryptor
	log       *logger.Logger
	mu        sync.RWMutex
}

// NewEncryptedFileBackend opens (or creates) dir. A random salt is written on
// first use and reused afterwards so the same passphrase keeps working.
func NewEncryptedFileBackend(dir, passphrase string, log *logger.Logger) (*EncryptedFileBackend, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	salt, err := loadOrCreateSalt(filepath.Join(dir, saltFile))
	if err != nil {
		return nil, err
	}
	encryptor, err := NewAESEncryptor(passphrase, salt, DefaultKDFParams())
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	b := &EncryptedFileBackend{
		dir:       dir,
		encryptor: encryptor,
		log:       log.Component("encrypted_session_backend"),
	}
	b.log.WithFields(map[string]interface{}{
		"dir":             dir,
		"key_fingerprint": encryptor.KeyFingerprint(),
	}).Debug("Encrypted session backend initialized")
	return b, nil
}

func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil && len(salt) >= 16 {
		return salt, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	salt = make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0600); err != nil {
		return nil, fmt.Errorf("failed to write salt: %w", err)
	}
	return salt, nil
}

func (b *EncryptedFileBackend) Save(ctx context.Context, key, value string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	sealed, err := b.encryptor.Encrypt([]byte(value))
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	b.log.WithField("key", key).Debug("Session value saved")
	return nil
}

func (b *EncryptedFileBackend) Load(ctx context.Context, key string) (string, error) {
	path, err := b.path(key)
	if err != nil {
		return "", err
	}
	b.mu.RLock()
	sealed, err := os.ReadFile(path)
	b.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	plain, err := b.encryptor.Decrypt(sealed)
	if err != nil {
		b.log.WithError(err).WithField("key", key).Warn("Failed to decrypt session value")
		return "", err
	}
	return string(plain), nil
}

func (b *EncryptedFileBackend) Delete(ctx context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (b *EncryptedFileBackend) path(key string) (string, error) {
	if !validKey.MatchString(key) || key == saltFile {
		return "", fmt.Errorf("invalid session key %q", key)
	}
	return filepath.Join(b.dir, key+".enc"), nil
}
