package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "argon2id$v=19$"))
	assert.NoError(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_RejectsMalformedHashes(t *testing.T) {
	cases := []string{
		"",
		"bcrypt$whatever",
		"argon2id$v=19$m=x,t=1,p=4$c2FsdA$aGFzaA",
		"argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
		"argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!",
	}
	for _, h := range cases {
		assert.ErrorIs(t, VerifyPassword(h, "pw"), ErrInvalidHash, "hash %q", h)
	}
}

func TestRandomState(t *testing.T) {
	a, err := RandomState()
	require.NoError(t, err)
	b, err := RandomState()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
