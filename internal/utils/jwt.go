package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 30 * 24 * time.Hour
)

// Claims carries the user identity and role alongside the registered claims.
// Subject is the user id, ID the token id used for revocation.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenPair is what login, registration and refresh hand back.
type TokenPair struct {
	AccessToken      string
	AccessTokenID    string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// Issue signs a fresh access/refresh pair for the user.
func (t *TokenIssuer) Issue(userID uuid.UUID, role string) (*TokenPair, error) {
	now := t.now()

	accessID := uuid.NewString()
	access, err := GenerateJWT(userID, role, accessID, now, AccessTokenDuration, t.accessSecret)
	if err != nil {
		return nil, err
	}

	refresh, err := GenerateJWT(userID, role, uuid.NewString(), now, RefreshTokenDuration, t.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		AccessTokenID:    accessID,
		AccessExpiresAt:  now.Add(AccessTokenDuration),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(RefreshTokenDuration),
	}, nil
}

func (t *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return VerifyJWT(token, t.accessSecret)
}

func (t *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return VerifyJWT(token, t.refreshSecret)
}

// GenerateJWT creates a signed HS256 token.
func GenerateJWT(userID uuid.UUID, role, tokenID string, issuedAt time.Time, ttl time.Duration, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is missing")
	}
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyJWT parses and validates a token string.
func VerifyJWT(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
