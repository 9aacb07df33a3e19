package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("abc123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "abc123", hash)
	assert.True(t, VerifyPassword(hash, "abc123"))
	assert.False(t, VerifyPassword(hash, "abc124"))
	assert.False(t, VerifyPassword("", "abc123"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "c@y.com", RoleClient, 5)
	require.NoError(t, err)

	sub, role, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "c@y.com", sub)
	assert.Equal(t, RoleClient, role)

	_, _, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", "c@y.com", RoleClient, -1)
	require.NoError(t, err)

	_, _, err = ParseAccessToken("secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
