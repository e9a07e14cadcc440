package api_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/harmonyhub/sync-backend/api"
	"github.com/harmonyhub/sync-backend/internal/clock"
	"github.com/harmonyhub/sync-backend/internal/hub"
)

func newTestServer(t *testing.T) (*httptest.Server, *hub.Hub, func() *websocket.Conn) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := hub.New(clock.Default)
	api.Register(engine, h)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return srv, h, dial
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketAcceptLoopSendsWelcome(t *testing.T) {
	_, _, dial := newTestServer(t)
	conn := dial()

	frame := readFrame(t, conn)
	require.Equal(t, "connected", frame["type"])
	require.NotEmpty(t, frame["clientId"])
}

func TestWebSocketJoinRoomEndToEnd(t *testing.T) {
	_, _, dial := newTestServer(t)
	conn := dial()
	readFrame(t, conn) // connected

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":   "join_room",
		"roomId": "e2e-room",
	}))

	joined := readFrame(t, conn)
	require.Equal(t, "room_joined", joined["type"])
	require.Equal(t, "e2e-room", joined["roomId"])

	sync := readFrame(t, conn)
	require.Equal(t, "server_state_sync", sync["type"])
}

func TestWebSocketUnknownMessageTypeReturnsError(t *testing.T) {
	_, _, dial := newTestServer(t)
	conn := dial()
	readFrame(t, conn) // connected

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "not_a_real_kind"}))

	errFrame := readFrame(t, conn)
	require.Equal(t, "error", errFrame["type"])
}

func TestWebSocketDisconnectNotifiesRemainingMembers(t *testing.T) {
	_, _, dial := newTestServer(t)
	a := dial()
	readFrame(t, a)
	require.NoError(t, a.WriteJSON(map[string]any{"type": "join_room", "roomId": "e2e-cleanup"}))
	readFrame(t, a)
	readFrame(t, a)

	b := dial()
	readFrame(t, b)
	require.NoError(t, b.WriteJSON(map[string]any{"type": "join_room", "roomId": "e2e-cleanup"}))
	readFrame(t, b)
	readFrame(t, b)
	readFrame(t, a) // client_joined for b

	require.NoError(t, a.Close())

	left := readFrame(t, b)
	require.Equal(t, "client_left", left["type"])
}

func TestHubShutdownClosesOpenConnections(t *testing.T) {
	_, h, dial := newTestServer(t)
	conn := dial()
	readFrame(t, conn) // connected

	h.Shutdown()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "shutdown must close every live session's transport")
}
