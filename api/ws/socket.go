// Package ws upgrades incoming Gin requests to WebSocket connections and
// drives each one's accept-loop lifecycle: welcome, read loop, and
// disconnect cleanup (spec §4.7, §4.8).
package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/harmonyhub/sync-backend/internal/hub"
	"github.com/harmonyhub/sync-backend/internal/logger"
	"github.com/harmonyhub/sync-backend/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced by the Gin middleware chain in front of this
		// handler; the WebSocket handshake itself accepts any origin.
		return true
	},
}

// Handler returns a gin.HandlerFunc bound to h that upgrades the request,
// installs the session's read/write pumps, and runs its lifecycle to
// completion.
func Handler(h *hub.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Log.Debug("failed to upgrade websocket connection", "err", err)
			return
		}

		s := session.New(conn)
		go s.WritePump()

		h.HandleConnect(s)

		s.ReadPump(func(raw []byte) {
			h.Dispatch(s, raw)
		})

		s.Close()
		h.HandleDisconnect(s)
	}
}
