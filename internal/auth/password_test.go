package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "correct-horse-battery", hash)

	require.NoError(t, CheckPassword("correct-horse-battery", hash))
	assert.ErrorIs(t, CheckPassword("wrong-password-entirely", hash), ErrInvalidPassword)
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("short", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestGenerateAPIToken(t *testing.T) {
	plaintext, hash, err := GenerateAPIToken()
	require.NoError(t, err)

	// 32 random bytes hex-encoded
	assert.Len(t, plaintext, 64)
	assert.Equal(t, HashToken(plaintext), hash)
	assert.NotEqual(t, plaintext, hash)

	// Tokens must be unique
	plaintext2, _, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, plaintext2)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}
