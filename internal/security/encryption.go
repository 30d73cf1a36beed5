// internal/security/encryption.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecryption is returned for ciphertext that is malformed, tampered with
// or sealed under a different key. It never carries the ciphertext itself.
var ErrDecryption = errors.New("seed decryption failed")

// Encryption seals wallet seeds with AES-256-GCM under one process-wide key.
type Encryption struct {
	aead cipher.AEAD
}

// NewEncryption builds the vault from a base64 encoded 32 byte key.
func NewEncryption(masterKey string) (*Encryption, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("master key is empty")
	}

	keyBytes, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("master key is not valid base64")
	}

	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("invalid master key length: must be 32 bytes for AES-256, got %d", len(keyBytes))
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryption{aead: gcm}, nil
}

// Encrypt returns base64(nonce || sealed plaintext).
func (e *Encryption) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("plaintext cannot be empty")
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Every failure maps to ErrDecryption.
func (e *Encryption) Decrypt(ciphertext string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed encoding", ErrDecryption)
	}

	nonceSize := e.aead.NonceSize()
	if len(decoded) <= nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, sealed := decoded[:nonceSize], decoded[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}

	return string(plaintext), nil
}

// GenerateMasterKey generates a random 32-byte master key for AES-256
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(key), nil
}
