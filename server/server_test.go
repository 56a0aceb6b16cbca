package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"parley/db"
	"parley/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	require.NoError(t, err)

	config := &ServerConfig{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	srv := New(database, config)
	ts := httptest.NewServer(srv.Router())

	t.Cleanup(func() {
		ts.Close()
		database.Close()
		os.Remove(dbPath)
	})
	return ts
}

// newTestClient returns an http client with its own cookie jar, so each
// client carries an independent session.
func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func postJSON(t *testing.T, client *http.Client, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// registerAndLogin creates a fresh user and returns a logged-in client.
func registerAndLogin(t *testing.T, ts *httptest.Server, username string) *http.Client {
	t.Helper()
	client := newTestClient(t)
	creds := map[string]string{"username": username, "password": "secret123"}

	resp := postJSON(t, client, ts.URL+"/auth/register", creds)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, client, ts.URL+"/auth/login", creds)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return client
}

func TestRegisterLoginStatusLogout(t *testing.T) {
	ts := setupTestServer(t)
	client := newTestClient(t)
	creds := map[string]string{"username": "alice", "password": "secret123"}

	resp := postJSON(t, client, ts.URL+"/auth/register", creds)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Registration does not authenticate.
	var status models.StatusResponse
	decodeBody(t, get(t, client, ts.URL+"/auth/status"), &status)
	assert.False(t, status.IsAuthenticated)

	resp = postJSON(t, client, ts.URL+"/auth/login", creds)
	var login struct {
		UserID int64 `json:"user_id"`
	}
	decodeBody(t, resp, &login)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotZero(t, login.UserID)

	decodeBody(t, get(t, client, ts.URL+"/auth/status"), &status)
	assert.True(t, status.IsAuthenticated)
	assert.Equal(t, "alice", status.Username)

	resp = get(t, client, ts.URL+"/auth/logout")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	decodeBody(t, get(t, client, ts.URL+"/auth/status"), &status)
	assert.False(t, status.IsAuthenticated)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := setupTestServer(t)
	client := newTestClient(t)
	creds := map[string]string{"username": "alice", "password": "secret123"}

	resp := postJSON(t, client, ts.URL+"/auth/register", creds)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, client, ts.URL+"/auth/register", creds)
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Error, "already exists")
}

func TestLoginWrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	client := newTestClient(t)

	resp := postJSON(t, client, ts.URL+"/auth/register",
		map[string]string{"username": "alice", "password": "secret123"})
	resp.Body.Close()

	resp = postJSON(t, client, ts.URL+"/auth/login",
		map[string]string{"username": "alice", "password": "wrong"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatEndpointsRequireAuth(t *testing.T) {
	ts := setupTestServer(t)
	client := newTestClient(t)

	for _, url := range []string{"/chat/contacts", "/chat/chats", "/chat/chats/1/messages"} {
		resp := get(t, client, ts.URL+url)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, url)
	}
}

func TestAddAndListContacts(t *testing.T) {
	ts := setupTestServer(t)
	alice := registerAndLogin(t, ts, "alice")
	registerAndLogin(t, ts, "bob")

	resp := postJSON(t, alice, ts.URL+"/chat/contacts/add",
		map[string]string{"username": "bob", "alias": "Bobby"})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var contacts []models.Contact
	decodeBody(t, get(t, alice, ts.URL+"/chat/contacts"), &contacts)
	require.Len(t, contacts, 1)
	assert.Equal(t, "bob", contacts[0].Username)
	assert.Equal(t, "Bobby", contacts[0].Alias)
}

func TestAddContactErrors(t *testing.T) {
	ts := setupTestServer(t)
	alice := registerAndLogin(t, ts, "alice")
	registerAndLogin(t, ts, "bob")

	// Unknown user.
	resp := postJSON(t, alice, ts.URL+"/chat/contacts/add",
		map[string]string{"username": "nobody"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Self.
	resp = postJSON(t, alice, ts.URL+"/chat/contacts/add",
		map[string]string{"username": "alice"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Duplicate.
	resp = postJSON(t, alice, ts.URL+"/chat/contacts/add",
		map[string]string{"username": "bob"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = postJSON(t, alice, ts.URL+"/chat/contacts/add",
		map[string]string{"username": "bob"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateChatIsIdempotent(t *testing.T) {
	ts := setupTestServer(t)
	alice := registerAndLogin(t, ts, "alice")
	bob := registerAndLogin(t, ts, "bob")

	var bobStatus models.StatusResponse
	decodeBody(t, get(t, bob, ts.URL+"/auth/status"), &bobStatus)

	resp := postJSON(t, alice, ts.URL+"/chat/chats/create",
		map[string]int64{"target_user_id": bobStatus.UserID})
	var created struct {
		Message string `json:"message"`
		ChatID  int64  `json:"chat_id"`
	}
	decodeBody(t, resp, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotZero(t, created.ChatID)

	// Second create reports the same existing chat.
	resp = postJSON(t, alice, ts.URL+"/chat/chats/create",
		map[string]int64{"target_user_id": bobStatus.UserID})
	var existing struct {
		Message string `json:"message"`
		ChatID  int64  `json:"chat_id"`
	}
	decodeBody(t, resp, &existing)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Chat already exists", existing.Message)
	assert.Equal(t, created.ChatID, existing.ChatID)

	// Bob sees the same chat from his side, named after alice.
	var chats []models.Chat
	decodeBody(t, get(t, bob, ts.URL+"/chat/chats"), &chats)
	require.Len(t, chats, 1)
	assert.Equal(t, created.ChatID, chats[0].ChatID)
	assert.Equal(t, "alice", chats[0].Name)
}

func TestMessagesAuthorization(t *testing.T) {
	ts := setupTestServer(t)
	alice := registerAndLogin(t, ts, "alice")
	bob := registerAndLogin(t, ts, "bob")
	carol := registerAndLogin(t, ts, "carol")

	var bobStatus models.StatusResponse
	decodeBody(t, get(t, bob, ts.URL+"/auth/status"), &bobStatus)

	resp := postJSON(t, alice, ts.URL+"/chat/chats/create",
		map[string]int64{"target_user_id": bobStatus.UserID})
	var created struct {
		ChatID int64 `json:"chat_id"`
	}
	decodeBody(t, resp, &created)

	url := fmt.Sprintf("%s/chat/chats/%d/messages", ts.URL, created.ChatID)

	resp = get(t, alice, url)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Non-participant.
	resp = get(t, carol, url)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown chat.
	resp = get(t, alice, ts.URL+"/chat/chats/9999/messages")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// dialWS opens a websocket connection carrying the client's session cookie.
func dialWS(t *testing.T, ts *httptest.Server, client *http.Client) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	dialer := websocket.Dialer{Jar: client.Jar}
	conn, _, err := dialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) models.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env models.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, event string, v interface{}) {
	t.Helper()
	env, err := models.NewEnvelope(event, v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))
}

func TestWebsocketRequiresSession(t *testing.T) {
	ts := setupTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSendMessageBroadcastsToRoom(t *testing.T) {
	ts := setupTestServer(t)
	alice := registerAndLogin(t, ts, "alice")
	bob := registerAndLogin(t, ts, "bob")

	var bobStatus models.StatusResponse
	decodeBody(t, get(t, bob, ts.URL+"/auth/status"), &bobStatus)

	resp := postJSON(t, alice, ts.URL+"/chat/chats/create",
		map[string]int64{"target_user_id": bobStatus.UserID})
	var created struct {
		ChatID int64 `json:"chat_id"`
	}
	decodeBody(t, resp, &created)

	aliceWS := dialWS(t, ts, alice)
	bobWS := dialWS(t, ts, bob)

	writeEnvelope(t, aliceWS, models.EventJoinChat, models.RoomRef{ChatID: created.ChatID})
	env := readEnvelope(t, aliceWS)
	require.Equal(t, models.EventStatus, env.Event)

	writeEnvelope(t, bobWS, models.EventJoinChat, models.RoomRef{ChatID: created.ChatID})
	env = readEnvelope(t, bobWS)
	require.Equal(t, models.EventStatus, env.Event)

	writeEnvelope(t, aliceWS, models.EventSendMessage,
		models.Outgoing{ChatID: created.ChatID, Content: "hello bob"})

	// Both participants receive the broadcast, the sender included.
	for _, conn := range []*websocket.Conn{aliceWS, bobWS} {
		env = readEnvelope(t, conn)
		require.Equal(t, models.EventNewMessage, env.Event)

		var msg models.Message
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		assert.Equal(t, created.ChatID, msg.ChatID)
		assert.Equal(t, "alice", msg.SenderUsername)
		assert.Equal(t, "hello bob", msg.Content)
		assert.False(t, msg.Timestamp.IsZero())
	}

	// The message was persisted for later history fetches.
	var messages []models.Message
	decodeBody(t, get(t, alice,
		fmt.Sprintf("%s/chat/chats/%d/messages", ts.URL, created.ChatID)), &messages)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello bob", messages[0].Content)
}

func TestSendMessageToForeignChatIsRejected(t *testing.T) {
	ts := setupTestServer(t)
	alice := registerAndLogin(t, ts, "alice")
	registerAndLogin(t, ts, "bob")

	aliceWS := dialWS(t, ts, alice)

	writeEnvelope(t, aliceWS, models.EventSendMessage,
		models.Outgoing{ChatID: 9999, Content: "into the void"})

	env := readEnvelope(t, aliceWS)
	assert.Equal(t, models.EventError, env.Event)
}

func TestJoinChatRequiresParticipation(t *testing.T) {
	ts := setupTestServer(t)
	alice := registerAndLogin(t, ts, "alice")
	bob := registerAndLogin(t, ts, "bob")
	carol := registerAndLogin(t, ts, "carol")

	var bobStatus models.StatusResponse
	decodeBody(t, get(t, bob, ts.URL+"/auth/status"), &bobStatus)

	resp := postJSON(t, alice, ts.URL+"/chat/chats/create",
		map[string]int64{"target_user_id": bobStatus.UserID})
	var created struct {
		ChatID int64 `json:"chat_id"`
	}
	decodeBody(t, resp, &created)

	carolWS := dialWS(t, ts, carol)
	writeEnvelope(t, carolWS, models.EventJoinChat, models.RoomRef{ChatID: created.ChatID})

	env := readEnvelope(t, carolWS)
	assert.Equal(t, models.EventError, env.Event)
}
