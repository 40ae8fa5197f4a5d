package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// KDFParams are the argon2id parameters used to derive the file key.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeySize uint32
}

func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 2, Memory: 19 * 1024, Threads: 1, KeySize: 32}
}

// AESEncryptor seals values with AES-256-GCM. The nonce is prepended to
// the ciphertext.
type AESEncryptor struct {
	aead cipher.AEAD
	key  []byte
}

// NewAESEncryptor derives a key from passphrase and salt.
func NewAESEncryptor(passphrase string, salt []byte, params KDFParams) (*AESEncryptor, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if len(salt) < 16 {
		return nil, fmt.Errorf("salt must be at least 16 bytes")
	}
	key := argon2.IDKey([]byte(passphrase), salt, params.Time, params.Memory, params.Threads, params.KeySize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESEncryptor{aead: aead, key: key}, nil
}

func (e *AESEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *AESEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// KeyFingerprint identifies the derived key in logs without revealing it.
func (e *AESEncryptor) KeyFingerprint() string {
	hash := sha256.Sum256(e.key)
	return hex.EncodeToString(hash[:8])
}
