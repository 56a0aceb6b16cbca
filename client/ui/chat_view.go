package ui

import (
	"fmt"
	"strings"
)

func (a *App) updateChatTitle() {
	if a.chatView == nil {
		return
	}
	a.mu.RLock()
	name := a.activeNm
	a.mu.RUnlock()

	if name == "" {
		a.chatView.SetTitle(" Select a chat ")
	} else {
		a.chatView.SetTitle(fmt.Sprintf(" %s ", name))
	}
}

func (a *App) refreshChatView() {
	if a.chatView == nil {
		return
	}

	a.mu.RLock()
	messages := a.messages
	var myID int64
	if a.session != nil {
		myID = a.session.UserID
	}
	active := a.active
	a.mu.RUnlock()

	a.chatView.Clear()
	if active == 0 {
		return
	}

	// Chat view width for full-width date separators.
	_, _, width, _ := a.chatView.GetInnerRect()
	if width < 10 {
		width = 80
	}

	var sb strings.Builder
	lastDay := ""

	for _, msg := range messages {
		day := msg.Timestamp.Local().Format("2006-01-02")
		if day != lastDay {
			lastDay = day
			label := " " + formatDateSeparator(msg.Timestamp) + " "
			sideLen := (width - len(label)) / 2
			if sideLen < 1 {
				sideLen = 1
			}
			leftSide := strings.Repeat("─", sideLen)
			rightSide := strings.Repeat("─", width-sideLen-len(label))
			sb.WriteString(fmt.Sprintf("[gray]%s%s%s[-]\n", leftSide, label, rightSide))
		}

		timeStr := msg.Timestamp.Local().Format("15:04:05")

		// Outgoing = white, incoming = yellow.
		if msg.SenderID == myID {
			sb.WriteString(fmt.Sprintf("[gray]%s[-] [white]→ %s[-]\n",
				timeStr, tviewEscape(msg.Content)))
		} else {
			sb.WriteString(fmt.Sprintf("[gray]%s[-] [yellow]← %s: %s[-]\n",
				timeStr, msg.SenderUsername, tviewEscape(msg.Content)))
		}
	}

	a.chatView.SetText(sb.String())
	a.chatView.ScrollToEnd()
}
