package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) showMainScreen() {
	a.pages.RemovePage("auth")

	if !a.pages.HasPage("main") {
		a.pages.AddPage("main", a.createMainPage(), true, true)
	}
	a.pages.SwitchToPage("main")

	a.mu.RLock()
	username := ""
	if a.session != nil {
		username = a.session.Username
	}
	a.mu.RUnlock()
	a.contactsList.SetTitle(fmt.Sprintf(" Contacts [%s] ", username))

	a.updateConnectionStatus()
	a.updateContactsList()
	a.updateChatsList()
	a.app.SetFocus(a.chatsList)
}

func (a *App) createMainPage() tview.Primitive {
	a.contactsList = newSidebarList(" Contacts ")
	a.contactsList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		a.mu.RLock()
		if index >= len(a.contacts) {
			a.mu.RUnlock()
			return
		}
		contact := a.contacts[index]
		a.mu.RUnlock()
		a.engine.OpenChatWith(contact)
	})

	a.chatsList = newSidebarList(" Chats ")
	a.chatsList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		a.mu.RLock()
		if index >= len(a.chats) {
			a.mu.RUnlock()
			return
		}
		c := a.chats[index]
		a.mu.RUnlock()
		a.engine.OpenChat(c.ChatID, c.Name)
		a.app.SetFocus(a.messageInput)
	})

	a.chatView = tview.NewTextView()
	a.chatView.SetBorder(true)
	a.chatView.SetBorderColor(ColorBorder)
	a.chatView.SetBackgroundColor(ColorBg)
	a.chatView.SetTitle(" Select a chat ")
	a.chatView.SetTitleColor(ColorTitle)
	a.chatView.SetTextColor(ColorFg)
	a.chatView.SetDynamicColors(true)
	a.chatView.SetScrollable(true)
	a.chatView.ScrollToEnd()

	a.messageInput = tview.NewInputField()
	a.messageInput.SetLabel("> ")
	a.messageInput.SetFieldWidth(0)
	a.messageInput.SetBackgroundColor(ColorBg)
	a.messageInput.SetFieldBackgroundColor(ColorField)
	a.messageInput.SetFieldTextColor(ColorFg)
	a.messageInput.SetLabelColor(ColorHighlight)
	a.messageInput.SetBorder(true)
	a.messageInput.SetBorderColor(ColorBorder)
	a.messageInput.SetTitle(" Message ")
	a.messageInput.SetTitleColor(ColorTitle)
	a.messageInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			text := a.messageInput.GetText()
			if text != "" {
				a.engine.Send(text)
				a.messageInput.SetText("")
			}
		}
	})

	a.connectionView = tview.NewTextView()
	a.connectionView.SetBackgroundColor(ColorBg)
	a.connectionView.SetTextColor(ColorFg)
	a.connectionView.SetDynamicColors(true)
	a.connectionView.SetTextAlign(tview.AlignCenter)
	a.noticeView = a.connectionView

	a.statusBar = tview.NewTextView()
	a.statusBar.SetBackgroundColor(ColorAccent)
	a.statusBar.SetTextColor(ColorTitle)
	a.statusBar.SetTextAlign(tview.AlignCenter)
	a.statusBar.SetText(" F2:Add contact | F5:Refresh | F6:Reconnect | F9:Logout | F10:Quit | Tab:Switch pane ")

	sidebar := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.chatsList, 0, 1, true).
		AddItem(a.contactsList, 0, 1, false)

	chatPane := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.chatView, 0, 1, false).
		AddItem(a.messageInput, 3, 0, false)

	body := tview.NewFlex().
		AddItem(sidebar, 30, 0, true).
		AddItem(chatPane, 0, 1, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.connectionView, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)
	mainFlex.SetBackgroundColor(ColorBg)

	mainFlex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF2:
			a.showAddContactDialog()
			return nil
		case tcell.KeyF5:
			a.engine.RefreshDirectory()
			return nil
		case tcell.KeyF6:
			a.engine.Reconnect()
			return nil
		case tcell.KeyF9:
			a.engine.Logout()
			return nil
		case tcell.KeyF10:
			a.quit()
			return nil
		case tcell.KeyTab:
			a.cycleFocus()
			return nil
		}
		return event
	})

	return mainFlex
}

func newSidebarList(title string) *tview.List {
	list := tview.NewList()
	list.SetBorder(true)
	list.SetBorderColor(ColorBorder)
	list.SetBackgroundColor(ColorBg)
	list.SetTitle(title)
	list.SetTitleColor(ColorTitle)
	list.SetMainTextColor(ColorFg)
	list.SetMainTextStyle(tcell.StyleDefault.Foreground(ColorFg).Background(ColorBg))
	list.SetSelectedTextColor(ColorTitle)
	list.SetSelectedBackgroundColor(ColorAccent)
	list.SetHighlightFullLine(true)
	list.ShowSecondaryText(false)
	return list
}

func (a *App) cycleFocus() {
	switch {
	case a.chatsList.HasFocus():
		a.app.SetFocus(a.contactsList)
	case a.contactsList.HasFocus():
		a.app.SetFocus(a.messageInput)
	default:
		a.app.SetFocus(a.chatsList)
	}
}

func (a *App) updateContactsList() {
	if a.contactsList == nil {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	currentIdx := a.contactsList.GetCurrentItem()
	a.contactsList.Clear()

	for _, contact := range a.contacts {
		a.contactsList.AddItem(fmt.Sprintf("%s [gray](%s)", contact.DisplayName(), contact.Username), "", 0, nil)
	}

	if currentIdx >= 0 && currentIdx < a.contactsList.GetItemCount() {
		a.contactsList.SetCurrentItem(currentIdx)
	}
}

func (a *App) updateChatsList() {
	if a.chatsList == nil {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	currentIdx := a.chatsList.GetCurrentItem()
	a.chatsList.Clear()

	for _, c := range a.chats {
		label := c.Name
		if c.ChatID == a.active {
			label = "[::b]" + label + " ◀"
		}
		a.chatsList.AddItem(label, "", 0, nil)
	}

	if currentIdx >= 0 && currentIdx < a.chatsList.GetItemCount() {
		a.chatsList.SetCurrentItem(currentIdx)
	}
}

func (a *App) updateConnectionStatus() {
	if a.connectionView == nil {
		return
	}
	a.mu.RLock()
	connected := a.connected
	a.mu.RUnlock()

	if connected {
		a.connectionView.SetText("[green]● Connected[-]")
	} else {
		a.connectionView.SetText("[red]○ Disconnected[-] [gray]reconnecting, F6 to retry now[-]")
	}
}
