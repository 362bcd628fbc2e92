package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// keySize is the AES-256 key length in bytes.
const keySize = 32

// TokenEncryption seals token records with AES-256-GCM.
// Output is base64(nonce || ciphertext || tag); a fresh random nonce is used
// for every call to Encrypt.
type TokenEncryption struct {
	aead cipher.AEAD
}

// NewTokenEncryption creates a sealer for the given 32-byte key.
func NewTokenEncryption(key []byte) (*TokenEncryption, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes (256 bits), got %d bytes", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &TokenEncryption{aead: gcm}, nil
}

// Encrypt seals plaintext and returns the base64 encoded blob.
func (e *TokenEncryption) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

// Decrypt opens a blob produced by Encrypt. It fails on truncated input,
// tampering and key mismatch alike.
func (e *TokenEncryption) Decrypt(encoded []byte) ([]byte, error) {
	sealed := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(sealed, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	sealed = sealed[:n]

	nonceSize := e.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// GenerateEncryptionKey generates a random 32-byte key.
func GenerateEncryptionKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	return key, nil
}

// EncryptionKeyFromBase64 decodes a key as written by EncryptionKeyToBase64.
func EncryptionKeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 key: %w", err)
	}

	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d bytes", keySize, len(key))
	}

	return key, nil
}

// EncryptionKeyToBase64 converts a key to base64 for storage.
func EncryptionKeyToBase64(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
