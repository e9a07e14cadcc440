// Package protocol defines the wire format spoken over the hub's
// WebSocket endpoint: the inbound envelope every client frame must carry,
// the outbound message shapes the hub emits, and the JSON decoding rules
// (object frames, required "type", lenient numeric fields).
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// Recognized inbound message kinds (spec §4.4).
const (
	KindJoinRoom      = "join_room"
	KindLeaveRoom     = "leave_room"
	KindPlay          = "play"
	KindPause         = "pause"
	KindClientPause   = "client_pause"
	KindClientResume  = "client_resume"
	KindServerPlay    = "server_play"
	KindSeek          = "seek"
	KindSongChange    = "song_change"
	KindAddSong       = "add_song"
	KindPlaybackEnded = "playback_ended"
	KindGetRoomState  = "get_room_state"
	KindSyncRequest   = "sync_request"
)

// TriggeredByServer is the reserved sentinel used for auto-advance
// transitions. It can never collide with a session id because session
// ids are minted as UUIDs.
const TriggeredByServer = "server"

var (
	// ErrNotObject is returned when a frame's top-level JSON value is not
	// an object (e.g. an array, a string, a bare number).
	ErrNotObject = errors.New("protocol: frame is not a JSON object")
	// ErrNotUTF8 is returned when a frame is not valid UTF-8 text.
	ErrNotUTF8 = errors.New("protocol: frame is not valid UTF-8")
	// ErrMissingType is returned when a frame has no string "type" field.
	ErrMissingType = errors.New("protocol: frame is missing a \"type\" field")
)

// Number decodes leniently: any field that is absent, null, or not a
// JSON number is treated as zero rather than a decode error, matching
// spec §4.5's "all numeric message fields default to zero when missing
// or non-numeric" rule.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Song is an opaque client-supplied record. The hub only ever reads ID,
// Title, and URL from it (URL to opportunistically enrich
// DurationSeconds via internal/m3u8); every other field, including any
// caller-supplied durationSeconds, is round-tripped verbatim by keeping
// the original payload bytes and re-emitting them unchanged, unless the
// hub itself stamps a resolved DurationSeconds onto the song.
type Song struct {
	ID              string
	Title           string
	URL             string
	DurationSeconds *float64
	raw             json.RawMessage
	rawDuration     *float64
}

func (s *Song) UnmarshalJSON(data []byte) error {
	var fields struct {
		ID              string   `json:"id"`
		Title           string   `json:"title"`
		URL             string   `json:"url"`
		DurationSeconds *float64 `json:"durationSeconds"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	s.ID = fields.ID
	s.Title = fields.Title
	s.URL = fields.URL
	s.DurationSeconds = fields.DurationSeconds
	s.rawDuration = fields.DurationSeconds
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (s *Song) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	if len(s.raw) == 0 {
		return json.Marshal(struct {
			ID              string   `json:"id"`
			Title           string   `json:"title"`
			URL             string   `json:"url,omitempty"`
			DurationSeconds *float64 `json:"durationSeconds,omitempty"`
		}{s.ID, s.Title, s.URL, s.DurationSeconds})
	}
	if s.DurationSeconds == nil || s.DurationSeconds == s.rawDuration {
		return s.raw, nil
	}

	// DurationSeconds was stamped on after decode (m3u8 enrichment):
	// merge it into the original payload instead of losing the caller's
	// other opaque fields.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(s.raw, &fields); err != nil {
		return s.raw, nil
	}
	durBytes, err := json.Marshal(*s.DurationSeconds)
	if err != nil {
		return s.raw, nil
	}
	fields["durationSeconds"] = durBytes
	return json.Marshal(fields)
}

// NewSong constructs a Song from just id/title, for server-originated
// values that never round-tripped through a client payload.
func NewSong(id, title string) *Song {
	return &Song{ID: id, Title: title}
}

// Inbound is the union of every field any recognized message kind may
// carry. Handlers read only the fields relevant to the kind at hand.
type Inbound struct {
	Type string `json:"type"`

	RoomID string `json:"roomId"`

	Song         *Song  `json:"song"`
	SetAsCurrent bool   `json:"setAsCurrent"`
	Position     Number `json:"position"`
	IsPlaying    *bool  `json:"isPlaying"`
	SongID       string `json:"songId"`
	RequestID    string `json:"requestId"`
}

// Decode parses a raw text frame into an Inbound envelope. It enforces
// that the frame is valid UTF-8 and a JSON object carrying a string
// "type" field; anything else is a decode error that callers translate
// into an `error` unicast rather than a disconnect.
func Decode(raw []byte) (*Inbound, error) {
	if !utf8.Valid(raw) {
		return nil, ErrNotUTF8
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, ErrNotObject
	}

	typeRaw, ok := probe["type"]
	if !ok {
		return nil, ErrMissingType
	}
	var typeVal string
	if err := json.Unmarshal(typeRaw, &typeVal); err != nil || typeVal == "" {
		return nil, ErrMissingType
	}

	msg := &Inbound{}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, ErrNotObject
	}
	return msg, nil
}
