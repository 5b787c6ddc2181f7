package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/utils"
)

type AuthService struct {
	users     UserStore
	sessions  SessionStore
	blacklist TokenBlacklist
	tokens    *utils.TokenIssuer
	now       func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, blacklist TokenBlacklist, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		tokens:    tokens,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.Role
}

// AuthResult is returned by every flow that signs a user in.
type AuthResult struct {
	User   *models.User
	Tokens *utils.TokenPair
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, userAgent string) (*AuthResult, error) {
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("user already exists: %w", ErrConflict)
	}

	if in.Role != "" && !in.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", in.Role, ErrValidation)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        utils.StringPtr(in.Phone),
		PasswordHash: hash,
	}
	err = s.users.CreateWithRole(ctx, user, func(first bool) (models.Role, error) {
		return registrationRole(in.Role, first)
	})
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user already exists: %w", ErrConflict)
		}
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return s.startSession(ctx, user, userAgent)
}

// registrationRole resolves the role of a self-registered account. The first
// account bootstraps the platform as admin.
func registrationRole(requested models.Role, first bool) (models.Role, error) {
	switch {
	case first:
		return models.RoleAdmin, nil
	case requested == "":
		return models.RoleFamily, nil
	case requested == models.RoleAdmin:
		return "", fmt.Errorf("admin accounts are granted by an administrator: %w", ErrForbidden)
	case !requested.Valid():
		return "", fmt.Errorf("unknown role %q: %w", requested, ErrValidation)
	}
	return requested, nil
}

func (s *AuthService) Login(ctx context.Context, email, password, userAgent string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	if err := utils.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("account is disabled: %w", ErrForbidden)
	}
	return s.SignIn(ctx, user, userAgent)
}

// SignIn issues tokens for an already authenticated user and records the login.
func (s *AuthService) SignIn(ctx context.Context, user *models.User, userAgent string) (*AuthResult, error) {
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now
	return s.startSession(ctx, user, userAgent)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, userAgent string) (*AuthResult, error) {
	pair, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("could not issue tokens: %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		UserAgent:    truncate(userAgent, 255),
		ExpiresAt:    pair.RefreshExpiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("could not store session: %w", err)
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh rotates the refresh token. Presenting an already revoked token
// revokes every session of the user, since it indicates the token leaked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userAgent string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("missing refresh token: %w", ErrUnauthorized)
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired refresh token: %w", ErrUnauthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token subject: %w", ErrUnauthorized)
	}

	session, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, fmt.Errorf("unknown session: %w", ErrUnauthorized)
	}
	if session.IsRevoked {
		log.WithField("user_id", userID).Warn("Revoked refresh token reused, revoking all sessions")
		if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
			log.WithError(err).Error("Failed to revoke sessions")
		}
		return nil, fmt.Errorf("session revoked: %w", ErrUnauthorized)
	}
	if !session.Usable(s.now()) {
		return nil, fmt.Errorf("session expired: %w", ErrUnauthorized)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() {
		return nil, fmt.Errorf("user not found or disabled: %w", ErrUnauthorized)
	}

	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.startSession(ctx, user, userAgent)
}

// Logout revokes the refresh session (if any) and blacklists the access token
// until it would have expired.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, access *utils.Claims) error {
	if refreshToken != "" {
		if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
			return err
		}
	}
	if access == nil || access.ID == "" || access.ExpiresAt == nil {
		return nil
	}
	ttl := access.ExpiresAt.Time.Sub(s.now())
	return s.blacklist.Blacklist(ctx, access.ID, ttl)
}

// Authenticate verifies an access token and rejects blacklisted ones. The
// account must still be active and hold the role the token was issued with;
// after a role change the client refreshes to get a token for the new role.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %w", ErrUnauthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", ErrUnauthorized)
	}
	if claims.ID != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("could not check token status: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("token revoked: %w", ErrUnauthorized)
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not load account: %w", err)
	}
	if user == nil || !user.IsActive() {
		return nil, fmt.Errorf("user not found or disabled: %w", ErrUnauthorized)
	}
	if string(user.Role) != claims.Role {
		return nil, fmt.Errorf("role changed, refresh the session: %w", ErrUnauthorized)
	}
	return claims, nil
}

// PurgeSessions deletes sessions that expired, plus revoked ones older than a day.
func (s *AuthService) PurgeSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now().Add(-24*time.Hour))
}

func (s *AuthService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.RevokeAllForUser(ctx, userID)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
