package ui

import (
	"fmt"

	"parley/models"
)

// chat.Projector implementation. Calls arrive on the engine's dispatcher
// goroutine; each one stores the new state and queues a redraw.

func (a *App) SessionChanged(session *models.Session) {
	a.mu.Lock()
	a.session = session
	if session == nil {
		a.contacts = nil
		a.chats = nil
		a.active = 0
		a.activeNm = ""
		a.messages = nil
	}
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		if session != nil {
			a.showMainScreen()
		} else {
			a.showAuthScreen()
		}
	})
}

func (a *App) ConnectionChanged(connected bool) {
	a.mu.Lock()
	a.connected = connected
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.updateConnectionStatus()
	})
}

func (a *App) ContactsUpdated(contacts []models.Contact) {
	a.mu.Lock()
	a.contacts = contacts
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.updateContactsList()
	})
}

func (a *App) ChatsUpdated(chats []models.Chat) {
	a.mu.Lock()
	a.chats = chats
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.updateChatsList()
	})
}

func (a *App) ActiveChatChanged(chatID int64, name string) {
	a.mu.Lock()
	a.active = chatID
	a.activeNm = name
	a.messages = nil
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.updateChatTitle()
		a.refreshChatView()
		a.updateChatsList()
	})
}

func (a *App) HistoryLoaded(chatID int64, messages []models.Message) {
	a.mu.Lock()
	a.messages = messages
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.refreshChatView()
	})
}

func (a *App) MessageAppended(message models.Message) {
	a.mu.Lock()
	a.messages = append(a.messages, message)
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.refreshChatView()
	})
}

func (a *App) Notice(message string) {
	a.app.QueueUpdateDraw(func() {
		a.showNotice(message)
	})
}

func (a *App) ErrorReported(err error) {
	a.app.QueueUpdateDraw(func() {
		a.showNotice(fmt.Sprintf("[red]Error: %v[-]", err))
	})
}
