package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harmonyhub/sync-backend/internal/protocol"
)

func TestGetOrCreateReturnsSameRoomOnSecondCall(t *testing.T) {
	reg := NewRegistry()

	r1 := reg.GetOrCreate("room1", 1000)
	r2 := reg.GetOrCreate("room1", 2000)

	assert.Same(t, r1, r2)
	assert.Equal(t, int64(1000), r1.CreatedAtMs)
}

func TestDropIfEmptyRemovesOnlyWhenCountIsZero(t *testing.T) {
	reg := NewRegistry()
	reg.GetOrCreate("room1", 1000)

	reg.DropIfEmpty("room1", 1)
	_, ok := reg.Get("room1")
	assert.True(t, ok, "room with nonzero member count must not be dropped")

	reg.DropIfEmpty("room1", 0)
	_, ok = reg.Get("room1")
	assert.False(t, ok, "empty room must be dropped")
}

func TestRoomResurrectionIsPrevented(t *testing.T) {
	reg := NewRegistry()
	first := reg.GetOrCreate("room1", 1000)
	first.AddSong(1000, protocol.NewSong("s1", "X"), false, "A")

	reg.DropIfEmpty("room1", 0)

	second := reg.GetOrCreate("room1", 5000)
	assert.NotSame(t, first, second)
	assert.False(t, second.Snapshot().IsPlaying)
}
