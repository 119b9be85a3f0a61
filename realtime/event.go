package realtime

import (
	"encoding/json"
	"time"
)

// Wire event names. These are a compatibility contract with existing
// clients and must not be renamed.
const (
	EventChatMessage = "chatMessage"
	EventTyping      = "typing"
	EventUsersUpdate = "users:update"
	EventUserTyping  = "userTyping"
	EventAck         = "ack"
)

// InboundFrame is one JSON frame read from a websocket connection.
// Data stays raw until the event name selects a payload schema; payload
// shape is validated at this boundary, never branched on internally.
type InboundFrame struct {
	Event string          `json:"event"`
	AckID *int64          `json:"ackId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundFrame is one JSON frame written to a websocket connection.
type OutboundFrame struct {
	Event string `json:"event"`
	AckID *int64 `json:"ackId,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// ChatMessageRequest is the inbound "chatMessage" payload.
type ChatMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// ChatMessageEvent is the outbound "chatMessage" payload, fully resolved
// so clients never need a second lookup to display it.
type ChatMessageEvent struct {
	ID               string    `json:"id"`
	SenderID         string    `json:"senderId"`
	SenderUsername   string    `json:"senderUsername"`
	ReceiverID       string    `json:"receiverId"`
	ReceiverUsername string    `json:"receiverUsername"`
	Text             string    `json:"text"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Ack is the acknowledgment payload for inbound events that request one.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func AckOK() Ack {
	return Ack{Status: "ok"}
}

func AckError(message string) Ack {
	return Ack{Status: "error", Message: message}
}
