package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Prateek-02/ChatterHub/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is one live, authenticated connection. The Manager owns its
// lifecycle; the Router and the Presence Registry only hold references
// for lookup. A single user may own any number of concurrent sessions.
//
// All writes to the underlying connection go through the buffered out
// channel and a single writer goroutine, so delivery from many
// goroutines never interleaves frames.
type Session struct {
	ID   string
	User domain.User

	conn        *websocket.Conn
	out         chan OutboundFrame
	done        chan struct{}
	closeOnce   sync.Once
	sendTimeout time.Duration
	log         *slog.Logger
}

func NewSession(user domain.User, conn *websocket.Conn, bufferSize int, sendTimeout time.Duration, log *slog.Logger) *Session {
	return &Session{
		ID:          uuid.NewString(),
		User:        user,
		conn:        conn,
		out:         make(chan OutboundFrame, bufferSize),
		done:        make(chan struct{}),
		sendTimeout: sendTimeout,
		log:         log,
	}
}

// Send enqueues a frame for delivery. It reports false when the session
// is already closed or its queue stayed full past the send timeout; in
// both cases the frame is dropped, never queued for later. Realtime
// delivery is best-effort once a session misbehaves or drops.
func (s *Session) Send(frame OutboundFrame) bool {
	timer := time.NewTimer(s.sendTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return false
	case s.out <- frame:
		return true
	case <-timer.C:
		s.log.Warn("dropping event for slow session",
			"session_id", s.ID, "user_id", s.User.ID, "event", frame.Event)
		return false
	}
}

// WritePump drains the outbound queue onto the websocket. It exits when
// the session closes or a write fails; the read side notices the broken
// connection and triggers the usual disconnect cleanup.
func (s *Session) WritePump() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.out:
			if err := s.conn.WriteJSON(frame); err != nil {
				s.log.Debug("session write failed",
					"session_id", s.ID, "error", err)
				s.Close()
				return
			}
		}
	}
}

// Close is idempotent. After it returns no further frame is delivered to
// this session, even if the triggering event was already in flight.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
