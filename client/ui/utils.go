package ui

import (
	"time"

	"github.com/rivo/tview"
)

// formatDateSeparator formats a message date for display as a separator.
func formatDateSeparator(t time.Time) string {
	t = t.Local()
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	msgDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	if msgDate.Equal(today) {
		return "Today"
	} else if msgDate.Equal(yesterday) {
		return "Yesterday"
	} else if msgDate.Year() == now.Year() {
		return t.Format("January 2")
	}
	return t.Format("January 2, 2006")
}

// tviewEscape escapes style tags in user-provided text.
func tviewEscape(s string) string {
	return tview.Escape(s)
}
