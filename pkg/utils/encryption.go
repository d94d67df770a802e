package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var (
	ErrInvalidKey         = errors.New("encryption key must be base64-encoded 32 bytes (256 bits)")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// ParseEncryptionKey decodes a base64-encoded 32-byte AES-256 key.
// Generate one with: openssl rand -base64 32
func ParseEncryptionKey(keyBase64 string) ([]byte, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil || len(keyBytes) != 32 {
		return nil, ErrInvalidKey
	}
	return keyBytes, nil
}

// Sealer encrypts and decrypts byte payloads with AES-256-GCM.
// Output layout is base64(nonce || ciphertext).
type Sealer struct {
	gcm cipher.AEAD
}

// NewSealer builds a Sealer from a raw 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{gcm: gcm}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := s.gcm.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(ciphertext)))
	base64.StdEncoding.Encode(out, ciphertext)
	return out, nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	data := make([]byte, base64.StdEncoding.DecodedLen(len(sealed)))
	n, err := base64.StdEncoding.Decode(data, sealed)
	if err != nil {
		return nil, err
	}
	data = data[:n]

	nonceSize := s.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return s.gcm.Open(nil, nonce, ciphertext, nil)
}
