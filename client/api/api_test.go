package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestWebsocketURLDerivation(t *testing.T) {
	c, err := New("http://localhost:5000")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:5000/ws", c.WebsocketURL())

	c, err = New("https://parley.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "wss://parley.example.com/ws", c.WebsocketURL())
}

func TestUnauthorizedMapsToUnauthorizedKind(t *testing.T) {
	ts := newStubServer(t, http.StatusUnauthorized, `{"error":"Invalid username or password"}`)
	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Login("alice", "wrong")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.Contains(t, err.Error(), "Invalid username or password")
}

func TestAlreadyExistsMapsToConflictKind(t *testing.T) {
	ts := newStubServer(t, http.StatusBadRequest, `{"error":"Username already exists"}`)
	c, err := New(ts.URL)
	require.NoError(t, err)

	err = c.Register("alice", "secret123")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
}

func TestBadRequestMapsToValidationKind(t *testing.T) {
	ts := newStubServer(t, http.StatusBadRequest, `{"error":"Username and password are required"}`)
	c, err := New(ts.URL)
	require.NoError(t, err)

	err = c.Register("", "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
}

func TestServerErrorMapsToRemoteKind(t *testing.T) {
	ts := newStubServer(t, http.StatusInternalServerError, `{"error":"Could not list chats"}`)
	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Chats()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRemote))
}

func TestTransportFailureMapsToNetworkKind(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.Contacts()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork))
}

func TestCreateChatWithoutIDReturnsZero(t *testing.T) {
	ts := newStubServer(t, http.StatusOK, `{"message":"Chat already exists"}`)
	c, err := New(ts.URL)
	require.NoError(t, err)

	id, err := c.CreateChat(2)
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestFailureBodyWithoutErrorFieldStillMaps(t *testing.T) {
	ts := newStubServer(t, http.StatusNotFound, `not json`)
	c, err := New(ts.URL)
	require.NoError(t, err)

	err = c.AddContact("nobody")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRemote))
	assert.Contains(t, err.Error(), "404")
}