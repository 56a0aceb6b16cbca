package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) showAuthDialog() {
	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorAccent)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" parley ")
	form.SetTitleColor(ColorTitle)

	usernameField := tview.NewInputField()
	usernameField.SetLabel("Username: ")
	usernameField.SetFieldWidth(30)
	usernameField.SetBackgroundColor(ColorBg)

	passwordField := tview.NewInputField()
	passwordField.SetLabel("Password: ")
	passwordField.SetFieldWidth(30)
	passwordField.SetMaskCharacter('*')
	passwordField.SetBackgroundColor(ColorBg)

	statusText := tview.NewTextView()
	statusText.SetBackgroundColor(ColorBg)
	statusText.SetTextColor(tcell.ColorRed)
	statusText.SetTextAlign(tview.AlignCenter)
	statusText.SetDynamicColors(true)

	form.AddFormItem(usernameField)
	form.AddFormItem(passwordField)

	form.AddButton("Login", func() {
		username := usernameField.GetText()
		password := passwordField.GetText()
		if username == "" || password == "" {
			statusText.SetText("[red]Please enter username and password[-]")
			return
		}
		statusText.SetText("Signing in...")
		a.engine.Login(username, password)
	})

	form.AddButton("Register", func() {
		username := usernameField.GetText()
		password := passwordField.GetText()
		if username == "" || password == "" {
			statusText.SetText("[red]Please enter username and password[-]")
			return
		}
		statusText.SetText("Registering...")
		a.engine.Register(username, password)
	})

	form.AddButton("Quit", func() {
		a.app.Stop()
	})

	formFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(statusText, 1, 0, false)

	width := 54
	height := 12

	modal := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(formFlex, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)

	a.noticeView = statusText
	a.pages.AddPage("auth", modal, true, true)
	a.app.SetFocus(form)
}

// showAuthScreen returns to the auth dialog after a logout.
func (a *App) showAuthScreen() {
	a.pages.RemovePage("main")
	if !a.pages.HasPage("auth") {
		a.showAuthDialog()
	}
	a.pages.SwitchToPage("auth")
}
