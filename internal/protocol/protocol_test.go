package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRejectsNonObject(t *testing.T) {
	_, err := Decode([]byte(`"just a string"`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = Decode([]byte(`[1,2,3]`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = Decode([]byte(`not even json`))
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	_, err := Decode([]byte{'{', 0xff, 0xfe, '}'})
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestDecodeRequiresType(t *testing.T) {
	_, err := Decode([]byte(`{"roomId":"room1"}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`{"type":123}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`{"type":""}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestDecodeParsesKnownFields(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"seek","position":30}`))
	require.NoError(t, err)
	assert.Equal(t, KindSeek, msg.Type)
	assert.Equal(t, Number(30), msg.Position)
}

func TestNumberDefaultsToZeroWhenNonNumeric(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"seek","position":"not a number"}`))
	require.NoError(t, err)
	assert.Equal(t, Number(0), msg.Position)

	msg, err = Decode([]byte(`{"type":"seek"}`))
	require.NoError(t, err)
	assert.Equal(t, Number(0), msg.Position)
}

func TestSongRoundTripsVerbatim(t *testing.T) {
	raw := `{"id":"s1","title":"X","series":"S1","poster_image_url":"http://x/y.png"}`

	var s Song
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "X", s.Title)

	out, err := json.Marshal(&s)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestSongMergesEnrichedDurationIntoRawPayload(t *testing.T) {
	raw := `{"id":"s1","title":"X","url":"http://x/y.m3u8","series":"S1"}`

	var s Song
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Nil(t, s.DurationSeconds)

	duration := 187.5
	s.DurationSeconds = &duration

	out, err := json.Marshal(&s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","title":"X","url":"http://x/y.m3u8","series":"S1","durationSeconds":187.5}`, string(out))
}

func TestNewSongMarshalsMinimalFields(t *testing.T) {
	s := NewSong("s2", "Y")
	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s2","title":"Y"}`, string(out))
}

func TestNilSongMarshalsNull(t *testing.T) {
	var s *Song
	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
