package ui

import (
	"context"
	"sync"

	"parley/client/chat"
	"parley/models"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// App renders engine state in the terminal. It owns no chat logic: every
// user action is forwarded to the engine and every view change comes back
// through the Projector callbacks.
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	engine *chat.Engine

	mu        sync.RWMutex
	session   *models.Session
	connected bool
	contacts  []models.Contact
	chats     []models.Chat
	active    int64
	activeNm  string
	messages  []models.Message

	contactsList   *tview.List
	chatsList      *tview.List
	chatView       *tview.TextView
	messageInput   *tview.InputField
	connectionView *tview.TextView
	statusBar      *tview.TextView
	noticeView     *tview.TextView
}

// NewApp creates a new application instance. The engine is attached with
// SetEngine once constructed, since it needs the app as its projector.
func NewApp() *App {
	return &App{}
}

func (a *App) SetEngine(engine *chat.Engine) {
	a.engine = engine
}

// Run starts the engine loop and the terminal UI.
func (a *App) Run(ctx context.Context) error {
	a.app = tview.NewApplication()
	a.pages = tview.NewPages()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.engine.Run(ctx)

	background := tview.NewBox()
	background.SetBackgroundColor(tcell.NewRGBColor(64, 64, 64))
	a.pages.AddPage("background", background, true, true)

	a.showAuthDialog()
	a.engine.Restore()

	return a.app.SetRoot(a.pages, true).EnableMouse(false).Run()
}

func (a *App) quit() {
	a.engine.Logout()
	a.app.Stop()
}
