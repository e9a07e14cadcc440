// Package hub composes the room registry, message dispatcher, and
// broadcaster into the single orchestrator a connection's read loop
// drives (spec §4.3, §4.4, §4.6).
package hub

import (
	"sync"

	"github.com/harmonyhub/sync-backend/internal/clock"
	"github.com/harmonyhub/sync-backend/internal/logger"
	"github.com/harmonyhub/sync-backend/internal/protocol"
	"github.com/harmonyhub/sync-backend/internal/room"
	"github.com/harmonyhub/sync-backend/internal/session"
)

// Hub is the top-level orchestrator: one per process, shared by every
// connection. It also holds the only registry of every live session
// across all rooms, since a session belongs to at most one room but
// must still be reachable during shutdown before it ever joins one.
type Hub struct {
	registry *Registry
	clock    clock.Source

	sessionsMu sync.RWMutex
	sessions   map[*session.Session]struct{}
}

// New constructs a Hub backed by the given clock source (production
// code passes clock.Default; tests substitute a fake).
func New(clk clock.Source) *Hub {
	return &Hub{
		registry: NewRegistry(),
		clock:    clk,
		sessions: make(map[*session.Session]struct{}),
	}
}

func (h *Hub) now() int64 {
	return h.clock.NowMillis()
}

// HandleConnect registers s as live and sends the `connected` welcome
// frame (spec §4.1).
func (h *Hub) HandleConnect(s *session.Session) {
	h.sessionsMu.Lock()
	h.sessions[s] = struct{}{}
	h.sessionsMu.Unlock()

	s.Send(protocol.Connected{
		Type:       "connected",
		ClientID:   s.ID,
		ServerTime: h.now(),
	})
}

// Dispatch routes one parsed frame from s by its "type" (spec §4.4).
func (h *Hub) Dispatch(s *session.Session, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		logger.Log.Debug("dropping malformed frame", "sessionId", s.ID, "err", err)
		s.Send(protocol.NewError("Malformed message.", h.now()))
		return
	}

	handle, recognized := handlers[msg.Type]
	if !recognized {
		s.Send(protocol.NewError("Unknown message type: "+msg.Type, h.now()))
		return
	}

	if msg.Type != protocol.KindJoinRoom && s.RoomID == "" {
		// Room-scoped message with no current room: silently ignored,
		// clients may legitimately race a leave_room (spec §4.4/§7).
		return
	}

	handle(h, s, msg)
}

// HandleDisconnect implements the three-step disconnect policy (spec
// §4.8): it is exactly leaveCurrentRoom's detach-and-broadcast, plus the
// registry cleanup that already happens inside it, plus dropping s from
// the live-session set. It does not close the session's transport; the
// caller (the connection's accept-loop goroutine) owns that. Disconnect
// never mutates a room's playback state.
func (h *Hub) HandleDisconnect(s *session.Session) {
	h.sessionsMu.Lock()
	delete(h.sessions, s)
	h.sessionsMu.Unlock()

	h.leaveCurrentRoom(s)
}

// Shutdown closes every currently connected session. Each Close call
// unblocks that session's ReadPump, which drives HandleDisconnect the
// same way an ordinary client disconnect would (spec §4.7/§5: "close
// every open Session ... then exit").
func (h *Hub) Shutdown() {
	h.sessionsMu.RLock()
	live := make([]*session.Session, 0, len(h.sessions))
	for s := range h.sessions {
		live = append(live, s)
	}
	h.sessionsMu.RUnlock()

	for _, s := range live {
		s.Close()
	}
}

// broadcast fans a message out to every member of r other than exclude
// (spec §4.6). It never runs while a room lock is held: Members()
// returns a snapshot, and each Send is independently non-blocking.
func (h *Hub) broadcast(r *room.Room, payload any, exclude *session.Session) {
	for _, member := range r.Members() {
		if member == exclude {
			continue
		}
		member.Send(payload)
	}
}

func (h *Hub) broadcastAll(r *room.Room, payload any) {
	h.broadcast(r, payload, nil)
}

func (h *Hub) stateView(state room.PlaybackState, nowMs int64) protocol.PlaybackStateView {
	return protocol.PlaybackStateView{
		IsPlaying:     state.IsPlaying,
		CurrentSong:   state.CurrentSong,
		Position:      state.DerivedPosition(nowMs),
		StartTime:     state.StartTimeMs,
		LastUpdatedMs: state.LastUpdatedMs,
		SongID:        state.SongID,
		TriggeredBy:   state.TriggeredBy,
	}
}
