package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"parley/db"
	"parley/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Hub tracks connected realtime clients and their chat room membership.
type Hub struct {
	db    *db.DB
	mu    sync.RWMutex
	rooms map[int64]map[*wsClient]struct{}
}

func newHub(database *db.DB) *Hub {
	return &Hub{
		db:    database,
		rooms: make(map[int64]map[*wsClient]struct{}),
	}
}

// wsClient is one connected websocket session. The send channel is never
// closed by broadcasters; writePump exits via done instead.
type wsClient struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   int64
	username string
	send     chan models.Envelope
	done     chan struct{}
	once     sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

func (h *Hub) join(chatID int64, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[chatID]
	if room == nil {
		room = make(map[*wsClient]struct{})
		h.rooms[chatID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(chatID int64, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room := h.rooms[chatID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

func (h *Hub) leaveAll(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for chatID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// broadcast delivers env to every member of the chat room, the sender
// included. Slow consumers are skipped rather than blocked on.
func (h *Hub) broadcast(chatID int64, env models.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[chatID] {
		select {
		case c.send <- env:
		default:
			log.Printf("Dropping event for slow client %q", c.username)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		hub:      s.hub,
		conn:     conn,
		userID:   sess.UserID,
		username: sess.Username,
		send:     make(chan models.Envelope, 64),
		done:     make(chan struct{}),
	}

	log.Printf("Client connected: %s", sess.Username)
	go client.writePump()
	client.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.leaveAll(c)
		c.close()
		c.conn.Close()
		log.Printf("Client disconnected: %s", c.username)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env models.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		c.handle(env)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) handle(env models.Envelope) {
	switch env.Event {
	case models.EventJoinChat:
		var ref models.RoomRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ChatID == 0 {
			c.sendError("chat_id is required")
			return
		}
		if !c.mustBeParticipant(ref.ChatID) {
			return
		}
		c.hub.join(ref.ChatID, c)
		c.sendStatus("Joined chat")

	case models.EventLeaveChat:
		var ref models.RoomRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ChatID == 0 {
			c.sendError("chat_id is required")
			return
		}
		c.hub.leave(ref.ChatID, c)

	case models.EventSendMessage:
		var out models.Outgoing
		if err := json.Unmarshal(env.Data, &out); err != nil || out.ChatID == 0 || out.Content == "" {
			c.sendError("chat_id and content are required")
			return
		}
		if !c.mustBeParticipant(out.ChatID) {
			return
		}

		msg := models.Message{
			ChatID:         out.ChatID,
			SenderID:       c.userID,
			SenderUsername: c.username,
			Content:        out.Content,
			Timestamp:      time.Now().UTC().Truncate(time.Second),
		}
		if err := c.hub.db.SaveMessage(msg.ChatID, msg.SenderID, msg.Content, msg.Timestamp); err != nil {
			log.Printf("Error saving message from %s: %v", c.username, err)
			c.sendError("Could not deliver message")
			return
		}

		env, err := models.NewEnvelope(models.EventNewMessage, msg)
		if err != nil {
			log.Printf("Error encoding message: %v", err)
			return
		}
		c.hub.broadcast(msg.ChatID, env)

	default:
		c.sendError("Unknown event: " + env.Event)
	}
}

func (c *wsClient) mustBeParticipant(chatID int64) bool {
	ok, err := c.hub.db.IsParticipant(chatID, c.userID)
	if err != nil {
		log.Printf("Error checking participant for chat %d: %v", chatID, err)
		c.sendError("Internal error")
		return false
	}
	if !ok {
		c.sendError("You are not a participant of this chat")
		return false
	}
	return true
}

func (c *wsClient) sendStatus(message string) {
	if env, err := models.NewEnvelope(models.EventStatus, models.Notice{Message: message}); err == nil {
		select {
		case c.send <- env:
		default:
		}
	}
}

func (c *wsClient) sendError(message string) {
	if env, err := models.NewEnvelope(models.EventError, models.Notice{Message: message}); err == nil {
		select {
		case c.send <- env:
		default:
		}
	}
}
