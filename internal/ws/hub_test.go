package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/utils"
)

type tokenAuth map[string]uuid.UUID

func (a tokenAuth) Authenticate(_ context.Context, token string) (*utils.Claims, error) {
	id, ok := a[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	c := &utils.Claims{Role: "family"}
	c.Subject = id.String()
	return c, nil
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func startServer(t *testing.T, hub *Hub, auth Authenticator) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", ServeWS(hub, auth, []string{"*"}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestServeWS_DeliversToEverySocketOfUser(t *testing.T) {
	hub := startHub(t)
	alice, bob := uuid.New(), uuid.New()
	url := startServer(t, hub, tokenAuth{"a": alice, "b": bob})

	phone := dial(t, url+"?token=a")
	browser := dial(t, url+"?token=a")
	other := dial(t, url+"?token=b")
	require.Eventually(t, func() bool { return hub.Connected(alice) == 2 && hub.Connected(bob) == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.SendToUser(alice, "emergency", map[string]string{"elder": "Grace"})

	for _, conn := range []*websocket.Conn{phone, browser} {
		msg := readMessage(t, conn)
		assert.Equal(t, "emergency", msg.Event)
		assert.Equal(t, map[string]any{"elder": "Grace"}, msg.Payload)
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's events")
}

func TestServeWS_AnswersPing(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	conn := dial(t, startServer(t, hub, tokenAuth{"t": user})+"?token=t")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", readMessage(t, conn).Event)
}

func TestServeWS_RejectsBadToken(t *testing.T) {
	hub := startHub(t)
	url := startServer(t, hub, tokenAuth{})

	for _, suffix := range []string{"", "?token=nope"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+suffix, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestServeWS_UnregistersOnClose(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	conn := dial(t, startServer(t, hub, tokenAuth{"t": user})+"?token=t")
	require.Eventually(t, func() bool { return hub.Connected(user) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connected(user) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	slow := &Client{hub: hub, userID: user, send: make(chan []byte, 1)}
	require.True(t, hub.attach(slow))

	hub.SendToUser(user, "notification", nil)
	hub.SendToUser(user, "notification", nil)

	require.Eventually(t, func() bool { return hub.Connected(user) == 0 }, 2*time.Second, 10*time.Millisecond)
	<-slow.send
	_, open := <-slow.send
	assert.False(t, open)
}

func TestCheckOrigin(t *testing.T) {
	allow := checkOrigin([]string{"https://app.elderlink.test"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, allow(req))
	req.Header.Set("Origin", "https://app.elderlink.test")
	assert.True(t, allow(req))
	req.Header.Set("Origin", "https://evil.test")
	assert.False(t, allow(req))
}
