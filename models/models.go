package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID       int64
	Username string
	Password string // hashed
}

// Session identifies an authenticated user on either side of the API.
type Session struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type Contact struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Alias    string `json:"alias,omitempty"`
}

// DisplayName returns the alias when set, the username otherwise.
func (c Contact) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Username
}

type Chat struct {
	ChatID int64  `json:"chat_id"`
	Name   string `json:"name"`
}

type Message struct {
	ChatID         int64     `json:"chat_id"`
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// SameAs reports whether two messages describe the same logical send.
// The transport assigns no message identity, so equality is derived from
// (chat, sender, timestamp, content).
func (m Message) SameAs(o Message) bool {
	return m.ChatID == o.ChatID &&
		m.SenderID == o.SenderID &&
		m.Timestamp.Equal(o.Timestamp) &&
		m.Content == o.Content
}

// StatusResponse is the /auth/status payload.
type StatusResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	UserID          int64  `json:"user_id,omitempty"`
	Username        string `json:"username,omitempty"`
}

// Realtime channel event names.
const (
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
	EventSendMessage = "send_message"
	EventNewMessage  = "new_message"
	EventStatus      = "status"
	EventError       = "error"
)

// Envelope frames every realtime channel payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals v into an envelope for the given event.
func NewEnvelope(event string, v interface{}) (Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// RoomRef addresses a chat room in join_chat/leave_chat events.
type RoomRef struct {
	ChatID int64 `json:"chat_id"`
}

// Outgoing is the send_message payload.
type Outgoing struct {
	ChatID  int64  `json:"chat_id"`
	Content string `json:"content"`
}

// Notice carries advisory status and error texts on the channel.
type Notice struct {
	Message string `json:"message"`
}
