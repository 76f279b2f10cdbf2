package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheapParams = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPasswordWith("correct horse", cheapParams)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "Correct horse"))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPasswordWith("same", cheapParams)
	require.NoError(t, err)
	b, err := HashPasswordWith("same", cheapParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPasswordWith("", cheapParams)
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPasswordWith(strings.Repeat("x", maxPasswordLength+1), cheapParams)
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$v=1$x$y$z", "$argon2id$v=19$m=x$salt$hash"} {
		assert.False(t, VerifyPassword(h, "anything"), h)
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPasswordWith("pw", cheapParams)
	require.NoError(t, err)

	assert.False(t, NeedsRehash(hash, cheapParams))
	assert.True(t, NeedsRehash(hash, DefaultHashParams))
	assert.True(t, NeedsRehash("garbage", cheapParams))
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again, "key must be stable across restarts")

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("abc"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "invalid session key length")
}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	key := make([]byte, keyLength)
	for i := range key {
		key[i] = byte(i)
	}
	s, err := NewTokenService(key, time.Hour)
	require.NoError(t, err)
	return s
}

func TestTokenService_SealOpen(t *testing.T) {
	s := newTestTokens(t)

	value := s.Seal("sess-abc")
	assert.True(t, strings.HasPrefix(value, "v4.local."))
	assert.NotContains(t, value, "sess-abc")

	claims, err := s.Open(value)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", claims.SessionID)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt, time.Second)
}

func TestTokenService_Expired(t *testing.T) {
	s := newTestTokens(t)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	value := s.Seal("sess-old")

	s.now = time.Now
	_, err := s.Open(value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongKey(t *testing.T) {
	s := newTestTokens(t)
	value := s.Seal("sess-abc")

	other, err := NewTokenService(make([]byte, keyLength), time.Hour)
	require.NoError(t, err)

	_, err = other.Open(value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Open("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Hour)
	assert.Error(t, err)
}
