// Package chat is the client-side session and chat-state engine. It
// reconciles three concurrent inputs (REST results, pushed realtime
// events, and user navigation) into one consistent view.
//
// All state is owned by a single dispatcher goroutine. User actions and
// request completions arrive on one ordered queue; realtime events arrive
// on the channel's own ordered queue. Requests issued concurrently may
// complete out of order, so every completion is validated against the
// state that is current when it lands, not the state it was issued under.
package chat

import (
	"context"
	"log"
	"time"

	"parley/client/realtime"
	"parley/models"
)

// API is the request/response half of the backend contract.
type API interface {
	Register(username, password string) error
	Login(username, password string) (models.Session, error)
	Logout() error
	Status() (models.StatusResponse, error)
	Contacts() ([]models.Contact, error)
	AddContact(username string) error
	Chats() ([]models.Chat, error)
	CreateChat(targetUserID int64) (int64, error)
	Messages(chatID int64) ([]models.Message, error)
}

// Channel is the realtime half: one live connection, room membership and
// fire-and-forget sends.
type Channel interface {
	Connect() error
	Disconnect()
	JoinChat(chatID int64)
	LeaveChat(chatID int64)
	SendMessage(chatID int64, content string)
	Events() <-chan realtime.Event
}

// Projector renders engine state. Calls are made from the dispatcher
// goroutine; implementations marshal onto their own UI thread.
type Projector interface {
	SessionChanged(session *models.Session)
	ConnectionChanged(connected bool)
	ContactsUpdated(contacts []models.Contact)
	ChatsUpdated(chats []models.Chat)
	ActiveChatChanged(chatID int64, name string)
	HistoryLoaded(chatID int64, messages []models.Message)
	MessageAppended(message models.Message)
	Notice(message string)
	ErrorReported(err error)
}

type Engine struct {
	api API
	ch  Channel
	ui  Projector

	events chan event
	// spawn runs a task off the dispatcher goroutine and queues its
	// resulting event. Replaced in tests to control completion order.
	spawn func(task func() event)

	// sleep delays reconnect attempts. Replaced in tests.
	sleep func(d time.Duration)

	session    *models.Session
	contacts   []models.Contact
	chats      []models.Chat
	activeChat int64
	activeName string
	log        *MessageLog
	connected  bool
	epoch      int // bumped on every session transition
}

func New(api API, ch Channel, ui Projector) *Engine {
	e := &Engine{
		api:    api,
		ch:     ch,
		ui:     ui,
		events: make(chan event, 128),
		sleep:  time.Sleep,
		log:    NewMessageLog(),
	}
	e.spawn = func(task func() event) {
		go func() {
			if ev := task(); ev != nil {
				e.events <- ev
			}
		}()
	}
	return e
}

// Run consumes both queues until the context is cancelled. It is the only
// goroutine that touches engine state.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.events:
			e.dispatch(ev)
		case rev := <-e.ch.Events():
			e.dispatchChannel(rev)
		}
	}
}

func (e *Engine) post(ev event) {
	e.events <- ev
}

func (e *Engine) dispatch(ev event) {
	switch ev := ev.(type) {
	case actionEvent:
		ev.run()
	case registerDone:
		e.onRegisterDone(ev)
	case loginDone:
		e.onLoginDone(ev)
	case restoreDone:
		e.onRestoreDone(ev)
	case contactsLoaded:
		e.onContactsLoaded(ev)
	case chatsLoaded:
		e.onChatsLoaded(ev)
	case historyLoaded:
		e.onHistoryLoaded(ev)
	case chatResolved:
		e.onChatResolved(ev)
	case channelFailed:
		if ev.epoch == e.epoch && e.session != nil {
			e.ui.ErrorReported(ev.err)
		}
	case reconnectDue:
		e.onReconnectDue(ev)
	case reconnectFailed:
		e.onReconnectFailed(ev)
	default:
		log.Printf("Unhandled engine event %T", ev)
	}
}

func (e *Engine) dispatchChannel(ev realtime.Event) {
	switch ev.Kind {
	case realtime.KindConnected:
		e.onChannelConnected()
	case realtime.KindDisconnected:
		e.onChannelDisconnected()
	case realtime.KindNewMessage:
		if ev.Message != nil {
			e.onNewMessage(*ev.Message)
		}
	case realtime.KindStatus:
		// Advisory only.
		log.Printf("Channel status: %s", ev.Notice)
	case realtime.KindError:
		e.onChannelError(ev.Notice)
	}
}
