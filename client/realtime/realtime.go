// Package realtime owns the single live channel to the backend: one
// websocket at a time, a read loop that delivers inbound events in arrival
// order, and fire-and-forget room and message sends.
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"parley/models"

	"github.com/gorilla/websocket"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

// Kind discriminates channel events delivered to the consumer.
type Kind int

const (
	KindConnected Kind = iota
	KindDisconnected
	KindNewMessage
	KindStatus
	KindError
)

// Event is one inbound occurrence on the channel. Events are delivered on
// a single ordered queue; relative order matches transport arrival order.
type Event struct {
	Kind    Kind
	Message *models.Message // set for KindNewMessage
	Notice  string          // set for KindStatus and KindError
}

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Conn manages at most one live websocket. Connect tears down any previous
// socket first, so duplicate event delivery is impossible.
type Conn struct {
	url    string
	dialer *websocket.Dialer
	events chan Event

	mu    sync.Mutex
	ws    *websocket.Conn
	state State
	gen   int // increments on every teardown; stale pumps check it
	done  chan struct{}
}

func New(url string, jar http.CookieJar) *Conn {
	return &Conn{
		url: url,
		dialer: &websocket.Dialer{
			Jar:              jar,
			HandshakeTimeout: dialTimeout,
		},
		events: make(chan Event, 256),
	}
}

// Events is the ordered inbound event queue. It is never closed; consumers
// stop reading when they shut down.
func (c *Conn) Events() <-chan Event {
	return c.events
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the realtime endpoint. Any existing socket is torn down
// first. On success a KindConnected event is queued before any inbound
// traffic from the new socket. Overlapping calls are safe: the dial only
// installs its socket if no later Connect or Disconnect intervened, so at
// most one socket is ever live.
func (c *Conn) Connect() error {
	c.mu.Lock()
	c.teardownLocked()
	c.state = Connecting
	gen := c.gen
	c.mu.Unlock()

	ws, _, err := c.dialer.Dial(c.url, nil)

	c.mu.Lock()
	if c.gen != gen {
		// Superseded while dialing; whoever bumped gen owns the state now.
		c.mu.Unlock()
		if err == nil {
			ws.Close()
		}
		return nil
	}
	if err != nil {
		c.state = Disconnected
		c.mu.Unlock()
		return fmt.Errorf("channel connect: %w", err)
	}
	c.ws = ws
	c.state = Connected
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.events <- Event{Kind: KindConnected}

	go c.readLoop(ws, gen)
	go c.pingLoop(ws, done)
	return nil
}

// Disconnect tears down the channel. Calling it while disconnected is a
// no-op. No disconnect event is emitted for a deliberate teardown.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.state = Disconnected
}

func (c *Conn) teardownLocked() {
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.gen++
}

func (c *Conn) JoinChat(chatID int64) {
	c.sendEnvelope(models.EventJoinChat, models.RoomRef{ChatID: chatID})
}

func (c *Conn) LeaveChat(chatID int64) {
	c.sendEnvelope(models.EventLeaveChat, models.RoomRef{ChatID: chatID})
}

func (c *Conn) SendMessage(chatID int64, content string) {
	c.sendEnvelope(models.EventSendMessage, models.Outgoing{ChatID: chatID, Content: content})
}

// sendEnvelope writes fire-and-forget; no acknowledgement is required for
// correctness. Write failures surface as channel errors.
func (c *Conn) sendEnvelope(event string, v interface{}) {
	env, err := models.NewEnvelope(event, v)
	if err != nil {
		c.events <- Event{Kind: KindError, Notice: err.Error()}
		return
	}

	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		c.events <- Event{Kind: KindError, Notice: "not connected"}
		return
	}

	ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ws.WriteJSON(env); err != nil {
		c.events <- Event{Kind: KindError, Notice: err.Error()}
	}
}

// readLoop decodes inbound envelopes and queues them sequentially,
// preserving arrival order. A read failure on the current socket emits
// KindDisconnected; a torn-down socket's failure is ignored.
func (c *Conn) readLoop(ws *websocket.Conn, gen int) {
	for {
		var env models.Envelope
		if err := ws.ReadJSON(&env); err != nil {
			c.mu.Lock()
			current := c.gen == gen
			if current {
				c.ws = nil
				c.state = Disconnected
				if c.done != nil {
					close(c.done)
					c.done = nil
				}
				c.gen++
			}
			c.mu.Unlock()
			if current {
				c.events <- Event{Kind: KindDisconnected}
			}
			return
		}

		ev, ok := decode(env)
		if !ok {
			continue
		}
		c.mu.Lock()
		current := c.gen == gen
		c.mu.Unlock()
		if !current {
			// Socket was torn down between the read and here.
			return
		}
		c.events <- ev
	}
}

func (c *Conn) pingLoop(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func decode(env models.Envelope) (Event, bool) {
	switch env.Event {
	case models.EventNewMessage:
		var msg models.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return Event{Kind: KindError, Notice: "malformed message event"}, true
		}
		return Event{Kind: KindNewMessage, Message: &msg}, true
	case models.EventStatus:
		var n models.Notice
		json.Unmarshal(env.Data, &n)
		return Event{Kind: KindStatus, Notice: n.Message}, true
	case models.EventError:
		var n models.Notice
		json.Unmarshal(env.Data, &n)
		return Event{Kind: KindError, Notice: n.Message}, true
	}
	return Event{}, false
}
