package chat

import (
	"parley/client/api"
	"parley/models"
)

// ChatDirectory: the locally known contacts and chats. Loads replace the
// sets wholesale; the backend is the source of truth and the cardinalities
// are small enough that incremental merging buys nothing.

// RefreshDirectory reloads contacts and chats from the backend.
func (e *Engine) RefreshDirectory() {
	e.post(actionEvent{func() { e.refreshAll() }})
}

// AddContact registers another user as a contact and refreshes the contact
// list on success.
func (e *Engine) AddContact(username string) {
	e.post(actionEvent{func() {
		e.spawn(func() event {
			if err := e.api.AddContact(username); err != nil {
				return contactsLoaded{err: err}
			}
			contacts, err := e.api.Contacts()
			return contactsLoaded{contacts: contacts, err: err}
		})
	}})
}

// OpenChatWith creates or looks up the one-on-one chat with a contact and
// opens it.
func (e *Engine) OpenChatWith(contact models.Contact) {
	e.post(actionEvent{func() {
		e.spawn(func() event {
			chatID, err := e.api.CreateChat(contact.UserID)
			return chatResolved{chatID: chatID, name: contact.DisplayName(), err: err}
		})
	}})
}

func (e *Engine) refreshAll() {
	e.refreshContacts()
	e.refreshChats()
}

func (e *Engine) refreshContacts() {
	e.spawn(func() event {
		contacts, err := e.api.Contacts()
		return contactsLoaded{contacts: contacts, err: err}
	})
}

func (e *Engine) refreshChats() {
	e.spawn(func() event {
		chats, err := e.api.Chats()
		return chatsLoaded{chats: chats, err: err}
	})
}

func (e *Engine) onContactsLoaded(ev contactsLoaded) {
	if e.session == nil {
		return // logged out while the request was in flight
	}
	if ev.err != nil {
		e.ui.ErrorReported(ev.err)
		return
	}
	e.contacts = ev.contacts
	e.ui.ContactsUpdated(e.contacts)
}

func (e *Engine) onChatsLoaded(ev chatsLoaded) {
	if e.session == nil {
		return
	}
	if ev.err != nil {
		e.ui.ErrorReported(ev.err)
		return
	}
	e.chats = ev.chats
	e.ui.ChatsUpdated(e.chats)
}

func (e *Engine) onChatResolved(ev chatResolved) {
	if e.session == nil {
		return
	}
	if ev.err != nil {
		e.ui.ErrorReported(ev.err)
		return
	}
	// The list order or name may have changed either way.
	e.refreshChats()

	if ev.chatID == 0 {
		// Backend said the chat exists but did not identify it. Matching by
		// display name is not reliable, so surface it instead of guessing.
		e.ui.ErrorReported(&api.Error{
			Kind:    api.KindRemote,
			Message: "backend reported an existing chat without a chat id",
		})
		return
	}
	e.openChat(ev.chatID, ev.name)
}
