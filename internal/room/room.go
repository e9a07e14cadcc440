// Package room implements the per-room playback state machine, its FIFO
// queue, and member set (spec §3, §4.5). A Room is the unit of
// serialization: every method here executes under the room's own mutex,
// and none of them perform I/O — callers read the returned snapshot and
// send messages after releasing the lock (spec §5, §9).
package room

import (
	"sync"

	"github.com/harmonyhub/sync-backend/internal/protocol"
	"github.com/harmonyhub/sync-backend/internal/session"
)

// PlaybackState mirrors spec §3's playback state tuple.
type PlaybackState struct {
	IsPlaying       bool
	CurrentSong     *protocol.Song
	PositionSeconds float64
	StartTimeMs     *int64
	LastUpdatedMs   int64
	SongID          string
	TriggeredBy     string
}

// DerivedPosition computes the logical playhead at wall time nowMs
// (spec §3's "Derived current position").
func (p PlaybackState) DerivedPosition(nowMs int64) float64 {
	if p.IsPlaying && p.StartTimeMs != nil {
		d := float64(nowMs-*p.StartTimeMs) / 1000
		if d < 0 {
			return 0
		}
		return d
	}
	return clampNonNegative(p.PositionSeconds)
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Room holds one workspace's playback state, queue, and member set.
type Room struct {
	mu sync.Mutex

	ID          string
	CreatedAtMs int64

	members map[*session.Session]struct{}
	state   PlaybackState
	queue   []*protocol.Song
}

// New creates an empty, Idle room (spec §4.3's get_or_create defaults).
func New(id string, nowMs int64) *Room {
	return &Room{
		ID:          id,
		CreatedAtMs: nowMs,
		members:     make(map[*session.Session]struct{}),
		state: PlaybackState{
			IsPlaying:       false,
			PositionSeconds: 0,
			LastUpdatedMs:   nowMs,
		},
		queue: make([]*protocol.Song, 0),
	}
}

// Join adds a session to the member set and returns the new member count.
func (r *Room) Join(s *session.Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[s] = struct{}{}
	return len(r.members)
}

// Leave removes a session from the member set and returns whether it was
// present and the resulting member count.
func (r *Room) Leave(s *session.Session) (wasMember bool, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.members[s]
	delete(r.members, s)
	return ok, len(r.members)
}

// MemberCount reports the current member count.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Members returns a point-in-time snapshot of the member set, safe to
// range over after the room lock is released.
func (r *Room) Members() []*session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*session.Session, 0, len(r.members))
	for s := range r.members {
		out = append(out, s)
	}
	return out
}

// Snapshot returns a copy of the current playback state.
func (r *Room) Snapshot() PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Queue returns a copy of the queue slice.
func (r *Room) Queue() []*protocol.Song {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*protocol.Song, len(r.queue))
	copy(out, r.queue)
	return out
}

// ApplyServerPlay implements transition 3 for `server_play`: an
// already-current song (re)starts playing from a caller-supplied
// position. This is the single seam spec §9's open question about
// server_play's trust model names: it is deliberately permissive today
// (any member may call it), so a future authorization check has exactly
// one place to land.
//
// It is a no-op, reported via the second return value, when the room
// has no current song: transition 3 presupposes one is already
// current, and setting is_playing=true with current_song still nil
// would violate spec §3's is_playing⇒current_song≠none invariant.
func (r *Room) ApplyServerPlay(nowMs int64, position float64, songID string, triggeredBy string) (PlaybackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.CurrentSong == nil {
		return r.state, false
	}

	position = clampNonNegative(position)
	startTime := nowMs - int64(position*1000)

	r.state.IsPlaying = true
	r.state.PositionSeconds = position
	r.state.StartTimeMs = &startTime
	r.state.SongID = songID
	r.state.TriggeredBy = triggeredBy
	r.state.LastUpdatedMs = nowMs

	return r.state, true
}

// ApplySeek implements the `seek` transitions (4 and 5): position is
// always rewritten; start_time is recomputed only while playing.
func (r *Room) ApplySeek(nowMs int64, position float64, triggeredBy string) PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()

	position = clampNonNegative(position)
	r.state.PositionSeconds = position

	if r.state.IsPlaying {
		startTime := nowMs - int64(position*1000)
		r.state.StartTimeMs = &startTime
	} else {
		r.state.StartTimeMs = nil
	}

	r.state.TriggeredBy = triggeredBy
	r.state.LastUpdatedMs = nowMs

	return r.state
}

// ApplySongChange implements the Idle→Playing / Playing→Playing
// `song_change` transition (transition 2).
func (r *Room) ApplySongChange(nowMs int64, song *protocol.Song, triggeredBy string) PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := nowMs
	r.state.CurrentSong = song
	r.state.PositionSeconds = 0
	r.state.StartTimeMs = &start
	r.state.IsPlaying = true
	r.state.SongID = song.ID
	r.state.TriggeredBy = triggeredBy
	r.state.LastUpdatedMs = nowMs

	return r.state
}

// AddSongResult reports the outcome of AddSong, since it can either
// promote a song to current (transitions 1/9) or merely append to the
// queue tail (transition 8).
type AddSongResult struct {
	State       PlaybackState
	Promoted    bool
	WasIdle     bool
	QueueLength int
}

// AddSong implements the `add_song` transitions (1, 8, 9). A song is
// promoted to current whenever the room has no current song
// (Idle, satisfying edge case 9) or the caller explicitly asked to
// replace the current song via setAsCurrent. Otherwise it is appended
// to the queue tail.
func (r *Room) AddSong(nowMs int64, song *protocol.Song, setAsCurrent bool, triggeredBy string) AddSongResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasIdle := r.state.CurrentSong == nil

	if wasIdle || setAsCurrent {
		start := nowMs
		r.state.CurrentSong = song
		r.state.PositionSeconds = 0
		r.state.StartTimeMs = &start
		r.state.IsPlaying = true
		r.state.SongID = song.ID
		r.state.TriggeredBy = triggeredBy
		r.state.LastUpdatedMs = nowMs

		return AddSongResult{
			State:       r.state,
			Promoted:    true,
			WasIdle:     wasIdle,
			QueueLength: len(r.queue),
		}
	}

	r.queue = append(r.queue, song)
	return AddSongResult{
		State:       r.state,
		Promoted:    false,
		QueueLength: len(r.queue),
	}
}

// PlaybackEndedResult reports whether the queue advanced (transition 6)
// or the room went Idle (transition 7).
type PlaybackEndedResult struct {
	State    PlaybackState
	Advanced bool
}

// PlaybackEnded implements `playback_ended` (transitions 6 and 7):
// dequeue-and-play when the queue is non-empty, otherwise go Idle with
// no broadcast (edge case 8).
func (r *Room) PlaybackEnded(nowMs int64) PlaybackEndedResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) == 0 {
		r.state.IsPlaying = false
		r.state.CurrentSong = nil
		r.state.PositionSeconds = 0
		r.state.StartTimeMs = nil
		r.state.LastUpdatedMs = nowMs

		return PlaybackEndedResult{State: r.state, Advanced: false}
	}

	next := r.queue[0]
	r.queue = r.queue[1:]

	start := nowMs
	r.state.CurrentSong = next
	r.state.PositionSeconds = 0
	r.state.StartTimeMs = &start
	r.state.IsPlaying = true
	r.state.SongID = next.ID
	r.state.TriggeredBy = protocol.TriggeredByServer
	r.state.LastUpdatedMs = nowMs

	return PlaybackEndedResult{State: r.state, Advanced: true}
}
