// Package m3u8 adapts the teacher's playlist-duration prober and
// segment-rewriting proxy helper to this hub's Song model. Duration
// enrichment is best-effort: a Song with no `.m3u8` URL, or one whose
// fetch fails, is queued exactly as supplied (spec §3 treats Song as an
// opaque value the hub never rejects).
package m3u8

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/etherlabsio/go-m3u8/m3u8"

	"github.com/harmonyhub/sync-backend/internal/logger"
)

func cleanURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	parsed.Path = path.Dir(parsed.Path)
	return parsed.String()
}

// FetchDuration resolves the playable duration, in seconds, of the
// media at rawURL. It follows master-playlist indirection recursively,
// descending into the first variant at each level, matching the
// teacher's internal/m3u8_duration.
func FetchDuration(rawURL string) (float64, error) {
	resp, err := http.Get(rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	playlist, err := m3u8.Read(resp.Body)
	if err != nil {
		return 0, err
	}

	if playlist.IsMaster() {
		for _, item := range playlist.Items {
			if variant, ok := item.(*m3u8.PlaylistItem); ok {
				next := fmt.Sprintf("%s/%s", cleanURL(rawURL), variant.URI)
				return FetchDuration(next)
			}
		}
	}

	return playlist.Duration(), nil
}

// TryEnrichDuration fetches a playlist's duration and logs (rather than
// propagates) any failure, since duration is optional display metadata.
func TryEnrichDuration(rawURL string) *float64 {
	duration, err := FetchDuration(rawURL)
	if err != nil {
		logger.Log.Debug("failed to fetch m3u8 duration", "url", rawURL, "err", err)
		return nil
	}
	return &duration
}

// RewriteThroughProxy parses an m3u8 playlist and rewrites every key,
// variant, and segment URI to route through proxyPrefix, so a browser
// client can play cross-origin HLS without CORS/redirect trouble
// (grounded on the teacher's api/rest/m3u8.go).
func RewriteThroughProxy(resp *http.Response, proxyPrefix string) (string, error) {
	playlist, err := m3u8.Read(resp.Body)
	if err != nil {
		return "", err
	}

	for _, item := range playlist.Items {
		switch it := item.(type) {
		case *m3u8.KeyItem:
			if it.Encryptable.URI != nil {
				rewritten := fmt.Sprintf("%s/%s", proxyPrefix, url.QueryEscape(*it.Encryptable.URI))
				it.Encryptable.URI = &rewritten
			}
		case *m3u8.PlaylistItem:
			it.URI = fmt.Sprintf("%s/%s", proxyPrefix, url.QueryEscape(it.URI))
		case *m3u8.SegmentItem:
			it.Segment = fmt.Sprintf("%s/%s", proxyPrefix, url.QueryEscape(it.Segment))
		}
	}

	return playlist.String(), nil
}

// ProxiedResponse is a buffered upstream response ready to be relayed
// back to a client verbatim.
type ProxiedResponse struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        []byte
}

// FetchProxied fetches rawURL and buffers its response for relay,
// letting rewritten m3u8 segment/key URIs resolve without a CORS
// preflight against the origin host (grounded on the teacher's
// api/rest/proxy.go).
func FetchProxied(rawURL string) (*ProxiedResponse, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := http.Get(parsed.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &ProxiedResponse{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Header:      resp.Header,
		Body:        body,
	}, nil
}
