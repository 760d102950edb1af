// Package crypto encrypts lead PII before it leaves the process.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidKey    = errors.New("encryption key must be 32 bytes for AES-256")
	ErrInvalidCipher = errors.New("invalid ciphertext")
	ErrEmptySecret   = errors.New("encryption secret is empty")
)

const keySalt = "leadchat-api-pii-v1"

// DeriveKey derives a 32-byte AES-256 key from a high-entropy secret with
// HKDF-SHA256. purpose binds the key to one use.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	r := hkdf.New(sha256.New, []byte(secret), []byte(keySalt), []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// FieldCipher seals individual string fields with AES-256-GCM. Each
// ciphertext is bound to an associated-data label (for example the record
// ID) and cannot be opened under a different one.
type FieldCipher struct {
	gcm cipher.AEAD
}

// NewFieldCipher creates a cipher from a 32-byte key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &FieldCipher{gcm: gcm}, nil
}

// NewFieldCipherFromSecret derives the key for purpose and creates a cipher.
func NewFieldCipherFromSecret(secret, purpose string) (*FieldCipher, error) {
	key, err := DeriveKey(secret, purpose)
	if err != nil {
		return nil, err
	}
	return NewFieldCipher(key)
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext || tag).
// An empty plaintext seals to "".
func (c *FieldCipher) Seal(plaintext, label string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), []byte(label))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. label must match the one used to seal.
func (c *FieldCipher) Open(ciphertext, label string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize+c.gcm.Overhead() {
		return "", ErrInvalidCipher
	}

	plaintext, err := c.gcm.Open(nil, data[:nonceSize], data[nonceSize:], []byte(label))
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
