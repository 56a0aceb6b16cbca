package chat

import (
	"log"
	"time"

	"parley/client/api"
	"parley/models"
)

// ActiveChatController: the state machine for which chat is open. At most
// one chat is active, the channel is joined to at most that chat's room,
// and a history fetch result is applied only when its chat is still the
// active one at completion time. The user may switch chats faster than
// fetches resolve; superseded results are dropped, never rendered and
// never reported as errors.

// OpenChat makes the given chat the active one.
func (e *Engine) OpenChat(chatID int64, name string) {
	e.post(actionEvent{func() { e.openChat(chatID, name) }})
}

// Send emits a message to the active chat. There is no optimistic local
// insert: the backend echo is the single source of truth for existence.
func (e *Engine) Send(content string) {
	e.post(actionEvent{func() { e.sendMessage(content) }})
}

func (e *Engine) openChat(chatID int64, name string) {
	if e.activeChat != 0 && e.activeChat != chatID {
		e.ch.LeaveChat(e.activeChat)
	}

	// The active chat must be set before the fetch is issued; its id is the
	// generation token that validates the fetch on completion.
	e.activeChat = chatID
	e.activeName = name
	e.ui.ActiveChatChanged(chatID, name)

	e.ch.JoinChat(chatID)

	e.spawn(func() event {
		messages, err := e.api.Messages(chatID)
		return historyLoaded{chatID: chatID, messages: messages, err: err}
	})
}

func (e *Engine) onHistoryLoaded(ev historyLoaded) {
	if ev.chatID != e.activeChat {
		// Stale: the user switched away before the fetch resolved.
		return
	}
	if ev.err != nil {
		e.ui.ErrorReported(ev.err)
		return
	}
	messages := e.log.Replace(ev.chatID, ev.messages)
	e.ui.HistoryLoaded(ev.chatID, messages)
}

func (e *Engine) sendMessage(content string) {
	if content == "" {
		return
	}
	if e.activeChat == 0 {
		e.ui.ErrorReported(&api.Error{Kind: api.KindValidation, Message: "no chat is open"})
		return
	}
	if !e.connected {
		e.ui.ErrorReported(&api.Error{Kind: api.KindChannel, Message: "not connected to chat server"})
		return
	}
	e.ch.SendMessage(e.activeChat, content)
}

// Channel lifecycle

// Reconnect re-establishes the channel on demand. A no-op while logged
// out or already connected.
func (e *Engine) Reconnect() {
	e.post(actionEvent{func() {
		if e.session == nil || e.connected {
			return
		}
		e.connectChannel(0)
	}})
}

func (e *Engine) onChannelConnected() {
	if e.session == nil {
		return
	}
	e.connected = true
	e.ui.ConnectionChanged(true)
	// Room membership does not survive a disconnect; re-join explicitly.
	if e.activeChat != 0 {
		e.ch.JoinChat(e.activeChat)
	}
}

func (e *Engine) onChannelDisconnected() {
	// Transient by assumption: the active chat and cached history stay,
	// and the channel comes back on its own.
	e.connected = false
	e.ui.ConnectionChanged(false)
	if e.session != nil {
		e.scheduleReconnect(0)
	}
}

const maxReconnectDelay = 30 * time.Second

func reconnectDelay(attempt int) time.Duration {
	if attempt >= 5 {
		return maxReconnectDelay
	}
	return time.Second << attempt
}

// scheduleReconnect queues a reconnect attempt after a backoff delay. The
// due event is re-validated on the dispatcher before anything dials.
func (e *Engine) scheduleReconnect(attempt int) {
	epoch := e.epoch
	delay := reconnectDelay(attempt)
	e.spawn(func() event {
		e.sleep(delay)
		return reconnectDue{attempt: attempt, epoch: epoch}
	})
}

func (e *Engine) onReconnectDue(ev reconnectDue) {
	if ev.epoch != e.epoch || e.session == nil || e.connected {
		return
	}
	e.connectChannel(ev.attempt)
}

func (e *Engine) connectChannel(attempt int) {
	epoch := e.epoch
	e.spawn(func() event {
		if err := e.ch.Connect(); err != nil {
			log.Printf("Channel connect attempt %d failed: %v", attempt+1, err)
			return reconnectFailed{attempt: attempt + 1, epoch: epoch}
		}
		return nil
	})
}

func (e *Engine) onReconnectFailed(ev reconnectFailed) {
	if ev.epoch != e.epoch || e.session == nil {
		return
	}
	e.scheduleReconnect(ev.attempt)
}

func (e *Engine) onChannelError(notice string) {
	// Channel errors never tear down the session.
	e.ui.ErrorReported(&api.Error{Kind: api.KindChannel, Message: notice})
}

// onNewMessage appends a pushed message to its chat's log. Only messages
// for the active chat are rendered immediately; others wait off-screen for
// the user to switch back. Every message refreshes the chat list so
// ordering and previews stay current.
func (e *Engine) onNewMessage(msg models.Message) {
	if e.session == nil {
		return
	}
	added := e.log.Append(msg)
	if added && msg.ChatID == e.activeChat {
		e.ui.MessageAppended(msg)
	}
	e.refreshChats()
}
