package rest

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/harmonyhub/sync-backend/internal/m3u8"
)

// M3U8 fetches the playlist at the trailing path segment and rewrites
// its key/variant/segment URIs to route through /proxied, so a browser
// client can stream cross-origin HLS without hitting CORS.
func M3U8(c *gin.Context) {
	rawURL := c.Param("url")[1:]
	parsed, err := url.Parse(rawURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL."})
		return
	}

	resp, err := http.Get(parsed.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to fetch URL."})
		return
	}
	defer resp.Body.Close()

	rewritten, err := m3u8.RewriteThroughProxy(resp, "/proxied")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse M3U8 playlist."})
		return
	}

	c.Data(http.StatusOK, "application/vnd.apple.mpegurl", []byte(rewritten))
}
