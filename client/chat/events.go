package chat

import "parley/models"

// event is anything consumable by the dispatcher: user actions posted from
// other goroutines and completions of asynchronous requests.
type event interface{}

// actionEvent runs a user action on the dispatcher goroutine.
type actionEvent struct {
	run func()
}

type registerDone struct {
	username string
	err      error
}

type loginDone struct {
	session models.Session
	err     error
}

type restoreDone struct {
	status models.StatusResponse
	err    error
}

type contactsLoaded struct {
	contacts []models.Contact
	err      error
}

type chatsLoaded struct {
	chats []models.Chat
	err   error
}

// historyLoaded carries its chat id as the generation token: the result is
// applied only if that chat is still active when the completion lands.
type historyLoaded struct {
	chatID   int64
	messages []models.Message
	err      error
}

type chatResolved struct {
	chatID int64 // zero when the backend reported "exists" without an id
	name   string
	err    error
}

type channelFailed struct {
	err   error
	epoch int
}

// reconnectDue fires after a backoff delay. epoch ties it to the session
// that scheduled it; a logout invalidates pending reconnects.
type reconnectDue struct {
	attempt int
	epoch   int
}

type reconnectFailed struct {
	attempt int
	epoch   int
}
