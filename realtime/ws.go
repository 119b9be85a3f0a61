package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// closeUnauthorized is the application close code sent when the
// handshake credential is missing or invalid.
const closeUnauthorized = 4401

// WSHandler is the websocket transport in front of the Manager. It owns
// the upgrade, the handshake authentication, and the per-connection read
// loop; every domain decision is delegated to the Manager.
type WSHandler struct {
	manager  *Manager
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(manager *Manager, log *slog.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients connect from a separately served frontend.
				return true
			},
		},
	}
}

func (h *WSHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleConnection)
}

// handshakeToken accepts the credential either as a query parameter or
// as a bearer header, since browser websocket clients cannot always set
// headers.
func handshakeToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (h *WSHandler) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	session, err := h.manager.Connect(handshakeToken(r), conn)
	if err != nil {
		// Refused before any event exchange; nothing was registered.
		h.log.Warn("websocket handshake refused", "error", err)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(closeUnauthorized, "unauthorized"))
		_ = conn.Close()
		return
	}

	go session.WritePump()
	defer h.manager.Disconnect(session)

	// Inbound events are handled one at a time in arrival order, so two
	// sends from the same connection can never persist out of order. The
	// dispatch context is detached from the request: a persist already in
	// flight when the client drops still completes and is delivered
	// best-effort to the remaining sessions.
	ctx := context.WithoutCancel(r.Context())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.log.Debug("discarding malformed frame",
				"session_id", session.ID, "error", err)
			continue
		}
		h.dispatch(ctx, session, frame)
	}
}

// dispatch routes one inbound frame. A failure handling one event never
// affects the connection's ability to process the next.
func (h *WSHandler) dispatch(ctx context.Context, session *Session, frame InboundFrame) {
	switch frame.Event {
	case EventChatMessage:
		var req ChatMessageRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			h.ack(session, frame.AckID, AckError("Receiver and text required"))
			return
		}
		h.ack(session, frame.AckID, h.manager.HandleChatMessage(ctx, session, req))

	case EventTyping:
		var username string
		if err := json.Unmarshal(frame.Data, &username); err != nil {
			h.log.Debug("discarding malformed typing payload", "session_id", session.ID)
			return
		}
		h.manager.HandleTyping(session, username)

	default:
		h.log.Debug("unknown event", "event", frame.Event, "session_id", session.ID)
	}
}

// ack answers an inbound event that requested an acknowledgment. Events
// sent without an ackId (typing, fire-and-forget sends) get none.
func (h *WSHandler) ack(session *Session, ackID *int64, ack Ack) {
	if ackID == nil {
		return
	}
	session.Send(OutboundFrame{Event: EventAck, AckID: ackID, Data: ack})
}
