package chat

import (
	"log"

	"parley/models"
)

// Session state machine: Unauthenticated -> (login | restore) ->
// Authenticated -> (logout | failed startup status check) ->
// Unauthenticated. Entering Authenticated connects the channel and loads
// the directory; leaving it disconnects and clears all cached state.

// Login authenticates against the backend. Safe to call from any goroutine.
func (e *Engine) Login(username, password string) {
	e.post(actionEvent{func() {
		e.spawn(func() event {
			sess, err := e.api.Login(username, password)
			return loginDone{session: sess, err: err}
		})
	}})
}

// Register creates an account. It does not authenticate; the user logs in
// explicitly afterwards.
func (e *Engine) Register(username, password string) {
	e.post(actionEvent{func() {
		e.spawn(func() event {
			return registerDone{username: username, err: e.api.Register(username, password)}
		})
	}})
}

// Logout requests server-side invalidation and drops the session locally no
// matter what the server answers. The client must never keep claiming
// authentication after the user asked to leave.
func (e *Engine) Logout() {
	e.post(actionEvent{func() { e.handleLogout() }})
}

// Restore hydrates the session from a backend status check. Called once at
// startup; it is the only path besides Login that can set the session.
func (e *Engine) Restore() {
	e.post(actionEvent{func() {
		e.spawn(func() event {
			status, err := e.api.Status()
			return restoreDone{status: status, err: err}
		})
	}})
}

func (e *Engine) onRegisterDone(ev registerDone) {
	if ev.err != nil {
		e.ui.ErrorReported(ev.err)
		return
	}
	e.ui.Notice("Registered " + ev.username + ". You can sign in now.")
}

func (e *Engine) onLoginDone(ev loginDone) {
	if ev.err != nil {
		e.ui.ErrorReported(ev.err)
		return
	}
	sess := ev.session
	e.becomeAuthenticated(sess)
}

func (e *Engine) onRestoreDone(ev restoreDone) {
	if ev.err != nil {
		// Startup-only path: stay unauthenticated, let the user log in.
		e.ui.ErrorReported(ev.err)
		return
	}
	if !ev.status.IsAuthenticated {
		return
	}
	e.becomeAuthenticated(models.Session{
		UserID:   ev.status.UserID,
		Username: ev.status.Username,
	})
}

func (e *Engine) becomeAuthenticated(sess models.Session) {
	e.epoch++
	e.session = &sess
	e.ui.SessionChanged(e.session)

	epoch := e.epoch
	e.spawn(func() event {
		if err := e.ch.Connect(); err != nil {
			return channelFailed{err: err, epoch: epoch}
		}
		return nil
	})
	e.refreshAll()
}

func (e *Engine) handleLogout() {
	if e.session != nil {
		log.Printf("Logging out %s", e.session.Username)
	}
	// Fire the server-side invalidation but do not wait on it: local state
	// takes precedence.
	e.spawn(func() event {
		if err := e.api.Logout(); err != nil {
			log.Printf("Logout request failed: %v", err)
		}
		return nil
	})
	e.becomeUnauthenticated()
}

func (e *Engine) becomeUnauthenticated() {
	e.epoch++
	e.ch.Disconnect()
	e.session = nil
	e.contacts = nil
	e.chats = nil
	e.activeChat = 0
	e.activeName = ""
	e.log.Clear()
	e.connected = false

	e.ui.SessionChanged(nil)
	e.ui.ConnectionChanged(false)
	e.ui.ContactsUpdated(nil)
	e.ui.ChatsUpdated(nil)
	e.ui.ActiveChatChanged(0, "")
}
