package realtime

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/Prateek-02/ChatterHub/auth"
	"github.com/Prateek-02/ChatterHub/errors"
	"github.com/Prateek-02/ChatterHub/presence"
	"github.com/Prateek-02/ChatterHub/repositories"
	"github.com/Prateek-02/ChatterHub/services"

	"github.com/gorilla/websocket"
)

// Manager orchestrates the lifecycle of realtime sessions: it
// authenticates connections, keeps the presence registry and router in
// step, dispatches inbound events, and fans resulting events out to the
// affected sessions.
//
// Per connection the states are Connecting -> Authenticated -> Closed,
// with no intermediate states. Inbound events of one connection are
// handled one at a time in arrival order by its read loop; no ordering
// is guaranteed across connections.
type Manager struct {
	verifier auth.Verifier
	presence *presence.Registry
	router   *Router
	chat     services.IChatService
	users    repositories.IUserRepository

	bufferSize  int
	sendTimeout time.Duration
	log         *slog.Logger
}

func NewManager(
	verifier auth.Verifier,
	registry *presence.Registry,
	router *Router,
	chat services.IChatService,
	users repositories.IUserRepository,
	bufferSize int,
	sendTimeout time.Duration,
	log *slog.Logger,
) *Manager {
	return &Manager{
		verifier:    verifier,
		presence:    registry,
		router:      router,
		chat:        chat,
		users:       users,
		bufferSize:  bufferSize,
		sendTimeout: sendTimeout,
		log:         log,
	}
}

// Connect authenticates the handshake credential and promotes the
// connection to an authenticated session. On failure no presence state
// is touched and no event is broadcast; the caller refuses the
// connection.
func (m *Manager) Connect(token string, conn *websocket.Conn) (*Session, error) {
	user, err := m.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	session := NewSession(user, conn, m.bufferSize, m.sendTimeout, m.log)
	m.presence.Register(session.ID, user.ID)
	m.router.Add(session)
	m.broadcastPresence()

	m.log.Info("session connected", "session_id", session.ID,
		"user_id", user.ID, "username", user.Username)
	return session, nil
}

// Disconnect tears a session down. Safe to call from any point of the
// connection's lifetime, including while a persist is still in flight;
// the cleanup and presence broadcast always run.
func (m *Manager) Disconnect(session *Session) {
	session.Close()
	m.router.Remove(session)
	m.presence.Unregister(session.ID)
	m.broadcastPresence()

	m.log.Info("session disconnected", "session_id", session.ID,
		"user_id", session.User.ID)
}

// HandleChatMessage processes one inbound send-message event and returns
// the acknowledgment for the sender. On success the fully resolved event
// has already been delivered to both parties' live sessions (the sender
// echo covers all of the sender's own devices).
func (m *Manager) HandleChatMessage(ctx context.Context, session *Session, req ChatMessageRequest) Ack {
	populated, err := m.chat.SendMessage(ctx, session.User, req.ReceiverID, req.Text)
	if err != nil {
		return m.ackFor(session, err)
	}

	frame := OutboundFrame{Event: EventChatMessage, Data: toChatMessageEvent(populated)}
	m.router.Deliver(populated.ReceiverID, frame)
	if populated.SenderID != populated.ReceiverID {
		m.router.Deliver(populated.SenderID, frame)
	}
	return AckOK()
}

// HandleTyping relays a typing pulse to the addressed user's sessions.
// Not persisted, not acknowledged; expiry is the consumer's concern.
func (m *Manager) HandleTyping(session *Session, targetUsername string) {
	target, err := m.users.GetUserByUsername(targetUsername)
	if err != nil {
		m.log.Debug("typing pulse for unknown user", "username", targetUsername)
		return
	}
	m.router.Deliver(target.ID, OutboundFrame{
		Event: EventUserTyping,
		Data:  session.User.Username,
	})
}

// OnlineUsers exposes the distinct online snapshot, also served over REST.
func (m *Manager) OnlineUsers() []string {
	return m.presence.DistinctOnlineUsers()
}

func (m *Manager) broadcastPresence() {
	m.router.Broadcast(OutboundFrame{
		Event: EventUsersUpdate,
		Data:  m.presence.DistinctOnlineUsers(),
	})
}

// ackFor maps a send failure to a short, human-readable acknowledgment.
// Internal identifiers and stack traces never leave the boundary.
func (m *Manager) ackFor(session *Session, err error) Ack {
	switch {
	case stderrors.Is(err, errors.ErrMissingRecipient), stderrors.Is(err, errors.ErrEmptyText):
		return AckError("Receiver and text required")
	case stderrors.Is(err, errors.ErrUserNotFound):
		return AckError("Receiver not found")
	case stderrors.Is(err, errors.ErrTextTooLong):
		return AckError("Message too long")
	default:
		m.log.Error("failed to store message",
			"session_id", session.ID, "user_id", session.User.ID, "error", err)
		return AckError("Failed to store message")
	}
}

func toChatMessageEvent(p services.PopulatedMessage) ChatMessageEvent {
	return ChatMessageEvent{
		ID:               p.ID.String(),
		SenderID:         p.SenderID,
		SenderUsername:   p.SenderUsername,
		ReceiverID:       p.ReceiverID,
		ReceiverUsername: p.ReceiverUsername,
		Text:             p.Text,
		CreatedAt:        p.CreatedAt,
	}
}
