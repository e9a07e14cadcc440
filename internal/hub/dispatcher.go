package hub

import (
	"strings"

	"github.com/harmonyhub/sync-backend/internal/m3u8"
	"github.com/harmonyhub/sync-backend/internal/protocol"
	"github.com/harmonyhub/sync-backend/internal/session"
)

// handlerFunc implements one recognized message kind's effect on room
// state plus its broadcast/unicast replies (spec §4.4's kind table).
type handlerFunc func(h *Hub, s *session.Session, msg *protocol.Inbound)

var handlers = map[string]handlerFunc{
	protocol.KindJoinRoom:      handleJoinRoom,
	protocol.KindLeaveRoom:     handleLeaveRoom,
	protocol.KindPlay:          handlePlayPause,
	protocol.KindPause:         handlePlayPause,
	protocol.KindClientPause:   handleClientPause,
	protocol.KindClientResume:  handlePlayPause,
	protocol.KindServerPlay:    handleServerPlay,
	protocol.KindSeek:          handleSeek,
	protocol.KindSongChange:    handleSongChange,
	protocol.KindAddSong:       handleAddSong,
	protocol.KindPlaybackEnded: handlePlaybackEnded,
	protocol.KindGetRoomState:  handleGetRoomState,
	protocol.KindSyncRequest:   handleSyncRequest,
}

func handleJoinRoom(h *Hub, s *session.Session, msg *protocol.Inbound) {
	if msg.RoomID == "" {
		s.Send(protocol.NewError("join_room requires a roomId", h.now()))
		return
	}

	h.leaveCurrentRoom(s)

	r := h.registry.GetOrCreate(msg.RoomID, h.now())
	count := r.Join(s)
	s.RoomID = msg.RoomID

	h.broadcast(r, protocol.ClientJoined{
		Type:        "client_joined",
		ClientID:    s.ID,
		ClientCount: count,
	}, s)

	now := h.now()
	view := h.stateView(r.Snapshot(), now)

	s.Send(protocol.RoomJoined{
		Type:          "room_joined",
		RoomID:        r.ID,
		PlaybackState: view,
		ClientCount:   count,
	})
	s.Send(protocol.ServerStateSync{
		Type:            "server_state_sync",
		PlaybackState:   view,
		ServerTime:      now,
		IsServerPlaying: view.IsPlaying,
	})
}

func handleLeaveRoom(h *Hub, s *session.Session, _ *protocol.Inbound) {
	h.leaveCurrentRoom(s)
}

// leaveCurrentRoom detaches s from its current room (if any), broadcasts
// client_left to the remaining members, and drops the room if it is now
// empty. It backs both the explicit leave_room message and join_room's
// "detach from previous room" step.
func (h *Hub) leaveCurrentRoom(s *session.Session) {
	if s.RoomID == "" {
		return
	}

	r, ok := h.registry.Get(s.RoomID)
	roomID := s.RoomID
	s.RoomID = ""
	if !ok {
		return
	}

	wasMember, remaining := r.Leave(s)
	if wasMember {
		h.broadcast(r, protocol.ClientLeft{
			Type:        "client_left",
			ClientID:    s.ID,
			ClientCount: remaining,
		}, nil)
	}

	h.registry.DropIfEmpty(roomID, remaining)
}

func handlePlayPause(h *Hub, s *session.Session, _ *protocol.Inbound) {
	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	view := h.stateView(r.Snapshot(), now)

	s.Send(protocol.ServerStateSync{
		Type:            "server_state_sync",
		PlaybackState:   view,
		ServerTime:      now,
		IsServerPlaying: view.IsPlaying,
	})
}

func handleClientPause(h *Hub, s *session.Session, _ *protocol.Inbound) {
	s.Send(protocol.ClientPauseAck{
		Type:      "client_pause_ack",
		ClientID:  s.ID,
		Timestamp: h.now(),
	})
}

func handleServerPlay(h *Hub, s *session.Session, msg *protocol.Inbound) {
	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	state, applied := r.ApplyServerPlay(now, float64(msg.Position), msg.SongID, s.ID)
	if !applied {
		s.Send(protocol.NewError("server_play requires a current song", now))
		return
	}

	h.broadcastAll(r, protocol.ServerPlaySync{
		Type:        "server_play_sync",
		Position:    state.PositionSeconds,
		ServerTime:  now,
		StartTime:   *state.StartTimeMs,
		SongID:      state.SongID,
		TriggeredBy: state.TriggeredBy,
	})
}

func handleSeek(h *Hub, s *session.Session, msg *protocol.Inbound) {
	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	state := r.ApplySeek(now, float64(msg.Position), s.ID)

	h.broadcastAll(r, protocol.SeekSync{
		Type:        "seek_sync",
		Position:    state.PositionSeconds,
		IsPlaying:   state.IsPlaying,
		ServerTime:  now,
		StartTime:   state.StartTimeMs,
		TriggeredBy: state.TriggeredBy,
	})
}

func handleSongChange(h *Hub, s *session.Session, msg *protocol.Inbound) {
	if msg.Song == nil {
		s.Send(protocol.NewError("song_change requires a song", h.now()))
		return
	}

	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	state := r.ApplySongChange(now, msg.Song, s.ID)

	h.broadcastAll(r, protocol.SongChangeSync{
		Type:        "song_change_sync",
		Song:        state.CurrentSong,
		ServerTime:  now,
		StartTime:   *state.StartTimeMs,
		TriggeredBy: state.TriggeredBy,
	})
}

func handleAddSong(h *Hub, s *session.Session, msg *protocol.Inbound) {
	if msg.Song == nil {
		s.Send(protocol.NewError("add_song requires a song", h.now()))
		return
	}

	if msg.Song.DurationSeconds == nil && strings.Contains(msg.Song.URL, ".m3u8") {
		msg.Song.DurationSeconds = m3u8.TryEnrichDuration(msg.Song.URL)
	}

	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	result := r.AddSong(now, msg.Song, msg.SetAsCurrent, s.ID)

	s.Send(protocol.SongAddedResponse{
		Type:         "song_added_response",
		Success:      true,
		Song:         msg.Song,
		SetAsCurrent: result.Promoted,
		QueueLength:  result.QueueLength,
	})

	if result.Promoted {
		wasIdle := result.WasIdle
		h.broadcastAll(r, protocol.NewSongNotification{
			Type:       "new_song_notification",
			Song:       result.State.CurrentSong,
			StartTime:  *result.State.StartTimeMs,
			ServerTime: now,
			WasIdle:    &wasIdle,
		})
	}
}

func handlePlaybackEnded(h *Hub, s *session.Session, _ *protocol.Inbound) {
	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	result := r.PlaybackEnded(now)

	if result.Advanced {
		h.broadcastAll(r, protocol.NewSongNotification{
			Type:       "new_song_notification",
			Song:       result.State.CurrentSong,
			StartTime:  *result.State.StartTimeMs,
			ServerTime: now,
		})
	}
	// Empty queue: quiet transition to Idle, no broadcast (spec edge case 8).
}

func handleGetRoomState(h *Hub, s *session.Session, msg *protocol.Inbound) {
	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	view := h.stateView(r.Snapshot(), now)

	s.Send(protocol.RoomStateResponse{
		Type:          "room_state_response",
		PlaybackState: view,
		ServerTime:    now,
		RequestID:     msg.RequestID,
		Queue:         r.Queue(),
	})
}

func handleSyncRequest(h *Hub, s *session.Session, _ *protocol.Inbound) {
	r, ok := h.registry.Get(s.RoomID)
	if !ok {
		return
	}

	now := h.now()
	view := h.stateView(r.Snapshot(), now)

	s.Send(protocol.SyncResponse{
		Type:          "sync_response",
		PlaybackState: view,
		ServerTime:    now,
	})
}
