// Package session implements the per-connection Session: a reliable,
// ordered frame channel to one client, its current room membership, and
// the read/write pump pair that keeps a slow peer from ever blocking the
// room critical section it participates in (spec §4.1, §5).
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/harmonyhub/sync-backend/internal/clock"
	"github.com/harmonyhub/sync-backend/internal/logger"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer with this period. Must be less
	// than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum frame size accepted from a peer.
	maxMessageSize = 1024 * 32

	// outboundBuffer is the size of a session's bounded send queue.
	outboundBuffer = 256
)

// Session is one client's WebSocket connection. It is a member of at
// most one room at a time; RoomID is only ever mutated from the
// goroutine running ReadPump, so it needs no lock of its own.
type Session struct {
	ID string

	conn *websocket.Conn
	send chan []byte

	RoomID string

	JoinedAtMs int64

	closeOnce sync.Once
	closed    chan struct{}
}

// New wraps an upgraded WebSocket connection in a Session with a freshly
// minted identifier.
func New(conn *websocket.Conn) *Session {
	return &Session{
		ID:         uuid.NewString(),
		conn:       conn,
		send:       make(chan []byte, outboundBuffer),
		JoinedAtMs: clock.Default.NowMillis(),
		closed:     make(chan struct{}),
	}
}

// Send enqueues a JSON-serialized text frame for delivery. It never
// blocks: on a congested outbound queue the oldest queued frame is
// dropped to make room for this one, so a slow peer can never stall the
// room critical section a caller may be holding, and the frames that do
// survive are always the freshest state (spec §9's back-pressure
// policy).
func (s *Session) Send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Warn("failed to marshal outbound frame", "sessionId", s.ID, "err", err)
		return
	}

	for {
		select {
		case s.send <- data:
			return
		default:
		}

		select {
		case <-s.send:
			logger.Log.Warn("dropping oldest outbound frame, session send queue full", "sessionId", s.ID)
		default:
		}
	}
}

// Outbox exposes the session's outbound queue for whatever drains it
// (normally WritePump; tests drain it directly to assert on frames).
func (s *Session) Outbox() <-chan []byte {
	return s.send
}

// Close closes the underlying transport. It is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// WritePump drains the outbound queue to the socket and keeps the
// connection alive with periodic pings. It must run in its own
// goroutine for the lifetime of the session.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			return
		}
	}
}

// ReadPump reads frames from the socket and hands each raw payload to
// onMessage, in order, until the connection closes or a fatal read error
// occurs. It blocks the calling goroutine for the lifetime of the
// session, so the caller owns dispatch serialization for this session.
func (s *Session) ReadPump(onMessage func(raw []byte)) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		onMessage(data)
	}
}
