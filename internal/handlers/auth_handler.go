package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"elderlink/internal/middlewares"
	"elderlink/internal/models"
	"elderlink/internal/responses"
	"elderlink/internal/services"
)

// Cookie configuration
const (
	RefreshTokenCookieName = "refresh_token"
	OAuthStateCookieName   = "oauth_state"
)

type AuthHandler struct {
	authService   *services.AuthService
	secureCookies bool
}

func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// signedIn sets the refresh cookie and returns the access token in the body.
func (h *AuthHandler) signedIn(c *gin.Context, status int, res *services.AuthResult, message string) {
	maxAge := int(time.Until(res.Tokens.RefreshExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshTokenCookieName, res.Tokens.RefreshToken, maxAge, "/", "", h.secureCookies, true)
	responses.Success(c, status, authResponse{
		AccessToken: res.Tokens.AccessToken,
		ExpiresAt:   res.Tokens.AccessExpiresAt,
		User:        res.User,
	}, message)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(RefreshTokenCookieName, "", -1, "/", "", h.secureCookies, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"     binding:"required,max=120"`
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Phone    string `json:"phone"    binding:"omitempty,max=32"`
		Role     string `json:"role"     binding:"omitempty,role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Please provide your name, email and password correctly")
		return
	}

	res, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     models.Role(req.Role),
	}, c.Request.UserAgent())
	if err != nil {
		respondError(c, err, "Could not register user")
		return
	}

	h.signedIn(c, http.StatusCreated, res, "New user registered successfully!")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent())
	if err != nil {
		respondError(c, err, "Failed to login")
		return
	}

	h.signedIn(c, http.StatusOK, res, "User Login Successfully!")
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshTokenCookieName)
	if err != nil {
		responses.Fail(c, http.StatusUnauthorized, err, "Missing refresh token")
		return
	}

	res, err := h.authService.Refresh(c.Request.Context(), refreshToken, c.Request.UserAgent())
	if err != nil {
		h.clearRefreshCookie(c)
		respondError(c, err, "Invalid or expired refresh token")
		return
	}

	h.signedIn(c, http.StatusOK, res, "Access token refreshed successfully")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshTokenCookieName)
	if err := h.authService.Logout(c.Request.Context(), refreshToken, middlewares.CurrentClaims(c)); err != nil {
		respondError(c, err, "Could not revoke token")
		return
	}

	h.clearRefreshCookie(c)
	responses.Success(c, http.StatusOK, nil, "Logged out successfully")
}
