package ui

import (
	"time"

	"github.com/rivo/tview"
)

func (a *App) showAddContactDialog() {
	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorAccent)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" Add Contact ")
	form.SetTitleColor(ColorTitle)

	usernameField := tview.NewInputField()
	usernameField.SetLabel("Username: ")
	usernameField.SetFieldWidth(30)

	form.AddFormItem(usernameField)

	form.AddButton("Add", func() {
		username := usernameField.GetText()
		if username == "" {
			a.showNotice("[red]Username is required[-]")
			return
		}
		a.engine.AddContact(username)
		a.pages.RemovePage("dialog")
		a.app.SetFocus(a.contactsList)
	})

	form.AddButton("Cancel", func() {
		a.pages.RemovePage("dialog")
		a.app.SetFocus(a.contactsList)
	})

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(form, 50, 0, true).
			AddItem(nil, 0, 1, false), 9, 0, true).
		AddItem(nil, 0, 1, false)
	flex.SetBackgroundColor(ColorBg)

	a.pages.AddPage("dialog", flex, true, true)
	a.app.SetFocus(form)
}

// showNotice flashes a message on the notice line for a few seconds.
func (a *App) showNotice(message string) {
	view := a.noticeView
	if view == nil {
		return
	}
	view.SetText(message)

	time.AfterFunc(4*time.Second, func() {
		a.app.QueueUpdateDraw(func() {
			if a.noticeView != view {
				return
			}
			view.SetText("")
			a.updateConnectionStatus()
		})
	})
}
