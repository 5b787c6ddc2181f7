package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"elderlink/internal/responses"
	"elderlink/internal/services"
	"elderlink/internal/utils"
)

const oauthStateMaxAge = 10 * 60

type GoogleAuthHandler struct {
	googleAuthService *services.GoogleAuthService
	auth              *AuthHandler
}

func NewGoogleAuthHandler(googleAuthService *services.GoogleAuthService, auth *AuthHandler) *GoogleAuthHandler {
	return &GoogleAuthHandler{googleAuthService: googleAuthService, auth: auth}
}

func (h *GoogleAuthHandler) Login(c *gin.Context) {
	if !h.googleAuthService.Enabled() {
		responses.Fail(c, http.StatusServiceUnavailable, errors.New("google login is not configured"), "Google login unavailable")
		return
	}
	state, err := utils.RandomState()
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to generate state")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookieName, state, oauthStateMaxAge, "/", "", h.auth.secureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, h.googleAuthService.AuthCodeURL(state))
}

func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	queryState := c.Query("state")
	if queryState == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Missing state parameter")
		return
	}
	cookieState, err := c.Cookie(OAuthStateCookieName)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Missing state cookie")
		return
	}
	if queryState != cookieState {
		responses.Fail(c, http.StatusForbidden, nil, "State mismatch - possible CSRF attack")
		return
	}
	c.SetCookie(OAuthStateCookieName, "", -1, "/", "", h.auth.secureCookies, true)

	code := c.Query("code")
	if code == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Missing code")
		return
	}

	res, err := h.googleAuthService.Callback(c.Request.Context(), code, c.Request.UserAgent())
	if err != nil {
		respondError(c, err, "Failed to login with Google")
		return
	}

	h.auth.signedIn(c, http.StatusOK, res, "User Login Successfully!")
}
