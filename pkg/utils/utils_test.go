package utils

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=65536,t=3,p=2$")

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UsesRandomSalt(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=19$garbage$a$b"} {
		_, err := VerifyPassword("x", h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func newTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(newTestKey(t))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte(`[{"id":"1"}]`))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), `"id"`)

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(plain))
}

func TestSealer_WrongKeyFails(t *testing.T) {
	a, err := NewSealer(newTestKey(t))
	require.NoError(t, err)
	b, err := NewSealer(newTestKey(t))
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("secret"))
	require.NoError(t, err)
	_, err = b.Open(sealed)
	assert.Error(t, err)

	_, err = a.Open([]byte("AAAA"))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestParseEncryptionKey(t *testing.T) {
	key := newTestKey(t)
	parsed, err := ParseEncryptionKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = ParseEncryptionKey("not-base64!!")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParseEncryptionKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
