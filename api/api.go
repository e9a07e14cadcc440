// Package api wires the hub's WebSocket endpoint and the auxiliary REST
// surface onto a Gin engine.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/harmonyhub/sync-backend/api/rest"
	"github.com/harmonyhub/sync-backend/api/ws"
	"github.com/harmonyhub/sync-backend/internal/hub"
)

// Register mounts every route this service exposes onto r.
func Register(r *gin.Engine, h *hub.Hub) {
	r.GET("/ws", ws.Handler(h))
	rest.Register(r)
}
