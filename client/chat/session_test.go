package chat

import (
	"errors"
	"testing"

	"parley/client/realtime"
	"parley/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginFailureLeavesSessionAbsent(t *testing.T) {
	fake := &fakeAPI{loginErr: errors.New("invalid username or password")}
	e, ch, ui, q := newTestEngine(fake)

	e.Login("alice", "wrong")
	e.dispatch(<-e.events) // run the queued action
	q.resolveAll()

	assert.Nil(t, e.session)
	assert.Empty(t, ui.sessions)
	assert.NotContains(t, ch.calls, "connect")
	require.Len(t, ui.errors, 1)
}

func TestRegisterDoesNotAuthenticate(t *testing.T) {
	fake := &fakeAPI{}
	e, ch, ui, q := newTestEngine(fake)

	e.Register("alice", "pw")
	e.dispatch(<-e.events)
	q.resolveAll()

	assert.Nil(t, e.session)
	assert.Empty(t, ch.calls)
	require.Len(t, ui.notices, 1)
}

func TestRestoreHydratesSession(t *testing.T) {
	fake := &fakeAPI{status: models.StatusResponse{
		IsAuthenticated: true,
		UserID:          1,
		Username:        "alice",
	}}
	e, ch, ui, q := newTestEngine(fake)

	e.Restore()
	e.dispatch(<-e.events)
	q.resolveAll()

	require.NotNil(t, e.session)
	assert.Equal(t, "alice", e.session.Username)
	assert.Contains(t, ch.calls, "connect")
	// The directory loads on the transition into Authenticated.
	assert.Contains(t, fake.requests, "contacts")
	assert.Contains(t, fake.requests, "chats")
	require.Len(t, ui.sessions, 1)
}

func TestRestoreUnauthenticatedStaysLoggedOut(t *testing.T) {
	fake := &fakeAPI{status: models.StatusResponse{IsAuthenticated: false}}
	e, ch, ui, q := newTestEngine(fake)

	e.Restore()
	e.dispatch(<-e.events)
	q.resolveAll()

	assert.Nil(t, e.session)
	assert.Empty(t, ch.calls)
	assert.Empty(t, ui.errors)
}

func TestLogoutWhileDisconnectedClearsEverything(t *testing.T) {
	fake := &fakeAPI{logoutErr: errors.New("network unreachable")}
	e, ch, ui, q := newTestEngine(fake)

	e.session = &models.Session{UserID: 1, Username: "alice"}
	e.contacts = []models.Contact{{UserID: 2, Username: "bob"}}
	e.chats = []models.Chat{{ChatID: 42, Name: "bob"}}
	e.activeChat = 42
	e.activeName = "bob"
	e.log.Append(msg(42, 2, "hi", ts(1)))
	e.connected = false

	e.handleLogout()
	q.resolveAll()

	// Local state takes precedence: logged out even though the server
	// request failed.
	assert.Nil(t, e.session)
	assert.Empty(t, e.contacts)
	assert.Empty(t, e.chats)
	assert.Zero(t, e.activeChat)
	assert.Empty(t, e.log.Messages(42))
	assert.Contains(t, ch.calls, "disconnect")

	require.NotEmpty(t, ui.sessions)
	assert.Nil(t, ui.sessions[len(ui.sessions)-1])
	// The failed logout request is not surfaced as an error.
	assert.Empty(t, ui.errors)
}

func TestCompletionsAfterLogoutAreDropped(t *testing.T) {
	fake := &fakeAPI{contacts: []models.Contact{{UserID: 2, Username: "bob"}}}
	e, _, ui, q := newTestEngine(fake)

	e.session = &models.Session{UserID: 1, Username: "alice"}
	e.refreshContacts()
	e.handleLogout()
	uiBefore := len(ui.contacts)
	q.resolveAll()

	// The refresh issued before logout resolves afterwards; its result
	// must not repopulate the cleared directory.
	assert.Len(t, ui.contacts, uiBefore)
	assert.Empty(t, e.contacts)
}

func TestConnectFailureIsSurfaced(t *testing.T) {
	fake := &fakeAPI{loginSession: models.Session{UserID: 1, Username: "alice"}}
	e, ch, ui, q := newTestEngine(fake)
	ch.connectErr = errors.New("dial tcp: connection refused")

	e.onLoginDone(loginDone{session: fake.loginSession})
	q.resolveAll()

	require.NotEmpty(t, ui.errors)
	// The session survives a channel failure.
	assert.NotNil(t, e.session)
}

func TestChannelEventsIgnoredWhenLoggedOut(t *testing.T) {
	fake := &fakeAPI{}
	e, _, ui, _ := newTestEngine(fake)

	m := msg(42, 2, "ghost", ts(1))
	e.dispatchChannel(realtime.Event{Kind: realtime.KindNewMessage, Message: &m})

	assert.Empty(t, ui.appended)
	assert.Empty(t, e.log.Messages(42))
}
