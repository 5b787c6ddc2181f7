package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret")
	userID := uuid.New()

	pair, err := issuer.Issue(userID, "doctor")
	require.NoError(t, err)

	claims, err := issuer.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, id)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, pair.AccessTokenID, claims.ID)

	refreshClaims, err := issuer.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), refreshClaims.Subject)
	assert.NotEqual(t, claims.ID, refreshClaims.ID)
}

func TestTokenIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret")
	pair, err := issuer.Issue(uuid.New(), "family")
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = issuer.VerifyRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestVerifyJWT_Expired(t *testing.T) {
	secret := []byte("s")
	token, err := GenerateJWT(uuid.New(), "family", "jti", time.Now().Add(-2*time.Hour), time.Hour, secret)
	require.NoError(t, err)

	_, err = VerifyJWT(token, secret)
	assert.Error(t, err)
}

func TestGenerateJWT_MissingSecret(t *testing.T) {
	_, err := GenerateJWT(uuid.New(), "family", "jti", time.Now(), time.Hour, nil)
	assert.Error(t, err)
}
