package chat

import (
	"fmt"
	"time"

	"parley/client/realtime"
	"parley/models"
)

// The engine is tested synchronously: spawn is replaced with a queue so a
// test decides when, and in which order, in-flight requests complete. That
// reproduces exactly the interleavings the dispatcher has to survive.

type fakeAPI struct {
	loginSession  models.Session
	loginErr      error
	registerErr   error
	logoutErr     error
	status        models.StatusResponse
	statusErr     error
	contacts      []models.Contact
	contactsErr   error
	addContactErr error
	chats         []models.Chat
	chatsErr      error
	createChatID  int64
	createChatErr error
	messages      map[int64][]models.Message
	messagesErr   error

	messageFetches []int64
	requests       []string
}

func (f *fakeAPI) Register(username, password string) error {
	f.requests = append(f.requests, "register "+username)
	return f.registerErr
}

func (f *fakeAPI) Login(username, password string) (models.Session, error) {
	f.requests = append(f.requests, "login "+username)
	return f.loginSession, f.loginErr
}

func (f *fakeAPI) Logout() error {
	f.requests = append(f.requests, "logout")
	return f.logoutErr
}

func (f *fakeAPI) Status() (models.StatusResponse, error) {
	f.requests = append(f.requests, "status")
	return f.status, f.statusErr
}

func (f *fakeAPI) Contacts() ([]models.Contact, error) {
	f.requests = append(f.requests, "contacts")
	return f.contacts, f.contactsErr
}

func (f *fakeAPI) AddContact(username string) error {
	f.requests = append(f.requests, "add-contact "+username)
	return f.addContactErr
}

func (f *fakeAPI) Chats() ([]models.Chat, error) {
	f.requests = append(f.requests, "chats")
	return f.chats, f.chatsErr
}

func (f *fakeAPI) CreateChat(targetUserID int64) (int64, error) {
	f.requests = append(f.requests, fmt.Sprintf("create-chat %d", targetUserID))
	return f.createChatID, f.createChatErr
}

func (f *fakeAPI) Messages(chatID int64) ([]models.Message, error) {
	f.requests = append(f.requests, fmt.Sprintf("messages %d", chatID))
	f.messageFetches = append(f.messageFetches, chatID)
	return f.messages[chatID], f.messagesErr
}

type fakeChannel struct {
	calls      []string
	connectErr error
	events     chan realtime.Event
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan realtime.Event, 16)}
}

func (c *fakeChannel) Connect() error {
	c.calls = append(c.calls, "connect")
	return c.connectErr
}

func (c *fakeChannel) Disconnect() {
	c.calls = append(c.calls, "disconnect")
}

func (c *fakeChannel) JoinChat(chatID int64) {
	c.calls = append(c.calls, fmt.Sprintf("join %d", chatID))
}

func (c *fakeChannel) LeaveChat(chatID int64) {
	c.calls = append(c.calls, fmt.Sprintf("leave %d", chatID))
}

func (c *fakeChannel) SendMessage(chatID int64, content string) {
	c.calls = append(c.calls, fmt.Sprintf("send %d %s", chatID, content))
}

func (c *fakeChannel) Events() <-chan realtime.Event {
	return c.events
}

type historyRecord struct {
	chatID   int64
	messages []models.Message
}

type activeRecord struct {
	chatID int64
	name   string
}

// recordingUI captures every projection in order.
type recordingUI struct {
	sessions  []*models.Session
	conn      []bool
	contacts  [][]models.Contact
	chats     [][]models.Chat
	active    []activeRecord
	histories []historyRecord
	appended  []models.Message
	notices   []string
	errors    []error
}

func (u *recordingUI) SessionChanged(s *models.Session)  { u.sessions = append(u.sessions, s) }
func (u *recordingUI) ConnectionChanged(connected bool)  { u.conn = append(u.conn, connected) }
func (u *recordingUI) ContactsUpdated(c []models.Contact) { u.contacts = append(u.contacts, c) }
func (u *recordingUI) ChatsUpdated(c []models.Chat)      { u.chats = append(u.chats, c) }
func (u *recordingUI) ActiveChatChanged(id int64, name string) {
	u.active = append(u.active, activeRecord{chatID: id, name: name})
}
func (u *recordingUI) HistoryLoaded(chatID int64, messages []models.Message) {
	u.histories = append(u.histories, historyRecord{chatID: chatID, messages: messages})
}
func (u *recordingUI) MessageAppended(m models.Message) { u.appended = append(u.appended, m) }
func (u *recordingUI) Notice(message string)            { u.notices = append(u.notices, message) }
func (u *recordingUI) ErrorReported(err error)          { u.errors = append(u.errors, err) }

// taskQueue holds spawned request tasks until the test resolves them.
type taskQueue struct {
	engine *Engine
	tasks  []func() event
}

// resolve completes the i-th pending task and dispatches its result.
func (q *taskQueue) resolve(i int) {
	task := q.tasks[i]
	q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
	if ev := task(); ev != nil {
		q.engine.dispatch(ev)
	}
}

// resolveAll completes pending tasks in the order they were issued,
// including any tasks they spawn in turn.
func (q *taskQueue) resolveAll() {
	for len(q.tasks) > 0 {
		q.resolve(0)
	}
}

func newTestEngine(api *fakeAPI) (*Engine, *fakeChannel, *recordingUI, *taskQueue) {
	ch := newFakeChannel()
	ui := &recordingUI{}
	e := New(api, ch, ui)
	q := &taskQueue{engine: e}
	e.spawn = func(task func() event) {
		q.tasks = append(q.tasks, task)
	}
	e.sleep = func(time.Duration) {}
	return e, ch, ui, q
}

// drainChannel feeds every queued channel event through the dispatcher.
func drainChannel(e *Engine, ch *fakeChannel) {
	for {
		select {
		case ev := <-ch.events:
			e.dispatchChannel(ev)
		default:
			return
		}
	}
}

func ts(sec int) time.Time {
	return time.Date(2026, 3, 14, 12, 0, sec, 0, time.UTC)
}

func msg(chatID, senderID int64, content string, at time.Time) models.Message {
	return models.Message{
		ChatID:         chatID,
		SenderID:       senderID,
		SenderUsername: fmt.Sprintf("user%d", senderID),
		Content:        content,
		Timestamp:      at,
	}
}
