package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/responses"
	"elderlink/internal/utils"
)

// Authenticator verifies an access token for the handshake.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.Claims, error)
}

// ServeWS upgrades an authenticated request. Browsers cannot set headers on a
// WebSocket handshake, so the access token travels in ?token=.
func ServeWS(hub *Hub, auth Authenticator, origins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(origins),
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			responses.Fail(c, http.StatusUnauthorized, errors.New("missing token"), "Authentication required")
			return
		}
		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			responses.Fail(c, http.StatusUnauthorized, err, "Invalid or expired token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			responses.Fail(c, http.StatusUnauthorized, err, "Invalid token subject")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("WebSocket upgrade failed")
			return
		}

		client := newClient(hub, userID, conn)
		if !hub.attach(client) {
			conn.Close()
			return
		}
		go client.writePump()
		go client.readPump()
	}
}

func checkOrigin(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || utils.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || utils.Contains(origins, origin)
	}
}
