package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harmonyhub/sync-backend/internal/m3u8"
)

// Proxy relays the trailing path segment's URL back to the client
// verbatim, via internal/m3u8's shared fetch helper.
func Proxy(c *gin.Context) {
	rawURL := c.Param("url")[1:]

	proxied, err := m3u8.FetchProxied(rawURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for key, values := range proxied.Header {
		for _, v := range values {
			c.Header(key, v)
		}
	}

	c.Data(proxied.StatusCode, proxied.ContentType, proxied.Body)
}
