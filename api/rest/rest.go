// Package rest registers the auxiliary HTTP surface that sits alongside
// the WebSocket hub: an m3u8 playlist rewriter and its matching segment
// proxy. Neither touches room state; both exist purely so a room's Song
// can carry an HLS URL that survives being played back cross-origin.
package rest

import "github.com/gin-gonic/gin"

func Register(r *gin.Engine) {
	r.GET("/m3u8/*url", M3U8)
	r.GET("/proxied/*url", Proxy)
}
