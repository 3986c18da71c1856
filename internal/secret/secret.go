// Package secret seals connection passwords before they are stored.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required key length in bytes.
const KeySize = chacha20poly1305.KeySize

var (
	// ErrInvalidKey is returned when the key is not KeySize bytes long.
	ErrInvalidKey = fmt.Errorf("secret key must be %d bytes", KeySize)
	// ErrMalformed is returned when a sealed value cannot be parsed or authenticated.
	ErrMalformed = errors.New("malformed sealed value")
)

// Box seals and opens short secrets with XChaCha20-Poly1305.
// Sealed values are encoded as hex(nonce) ":" hex(ciphertext).
type Box struct {
	key []byte
}

// New creates a Box from a 32-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return &Box{key: append([]byte(nil), key...)}, nil
}

// NewFromString creates a Box from a 32-character key, or a 64-character hex key.
func NewFromString(key string) (*Box, error) {
	if len(key) == 2*KeySize {
		if raw, err := hex.DecodeString(key); err == nil {
			return New(raw)
		}
	}
	return New([]byte(key))
}

// Seal encrypts plain text.
func (b *Box) Seal(plain string) (string, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plain), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(text string) (string, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	noncePart, dataPart, ok := strings.Cut(text, ":")
	if !ok {
		return "", ErrMalformed
	}
	nonce, err := hex.DecodeString(noncePart)
	if err != nil || len(nonce) != aead.NonceSize() {
		return "", ErrMalformed
	}
	data, err := hex.DecodeString(dataPart)
	if err != nil {
		return "", ErrMalformed
	}

	plain, err := aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return string(plain), nil
}
