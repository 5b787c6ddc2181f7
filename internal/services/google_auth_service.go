package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"elderlink/internal/models"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type GoogleAuthService struct {
	oauth       *oauth2.Config
	users       UserStore
	auth        *AuthService
	userInfoURL string
}

func NewGoogleAuthService(oauth *oauth2.Config, users UserStore, auth *AuthService) *GoogleAuthService {
	return &GoogleAuthService{
		oauth:       oauth,
		users:       users,
		auth:        auth,
		userInfoURL: googleUserInfoURL,
	}
}

func (s *GoogleAuthService) Enabled() bool {
	return s.oauth != nil && s.oauth.ClientID != ""
}

func (s *GoogleAuthService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Callback exchanges the authorization code, then signs in the Google user,
// creating a family account on first login.
func (s *GoogleAuthService) Callback(ctx context.Context, code, userAgent string) (*AuthResult, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("google login is not configured: %w", ErrUnavailable)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", ErrUnauthorized)
	}

	googleUser, err := s.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if !googleUser.VerifiedEmail {
		return nil, fmt.Errorf("email is not verified by Google: %w", ErrForbidden)
	}

	user, err := s.users.FindByEmail(ctx, googleUser.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		name := googleUser.Name
		if name == "" {
			name = googleUser.Email
		}
		// No password hash: this account can only sign in through Google.
		user = &models.User{
			Name:  name,
			Email: googleUser.Email,
			Role:  models.RoleFamily,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("account is disabled: %w", ErrForbidden)
	}

	return s.auth.SignIn(ctx, user, userAgent)
}

func (s *GoogleAuthService) fetchUser(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	client := s.oauth.Client(ctx, token)
	client.Timeout = 10 * time.Second

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d: %w", resp.StatusCode, ErrUpstream)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var googleUser GoogleUser
	if err := json.Unmarshal(body, &googleUser); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &googleUser, nil
}
