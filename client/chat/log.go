package chat

import "parley/models"

// MessageLog keeps per-chat history ordered and de-duplicated. Entries are
// non-decreasing by timestamp; equal timestamps keep insertion order. The
// same logical send can arrive both as fetched history and as a pushed
// event, so duplicates on (chat, sender, timestamp, content) are dropped.
type MessageLog struct {
	logs map[int64][]models.Message
}

func NewMessageLog() *MessageLog {
	return &MessageLog{logs: make(map[int64][]models.Message)}
}

// Replace discards the chat's cached history and installs the fetched one,
// normalized through the same ordering and de-duplication as Append.
func (l *MessageLog) Replace(chatID int64, messages []models.Message) []models.Message {
	delete(l.logs, chatID)
	for _, m := range messages {
		if m.ChatID == chatID {
			l.Append(m)
		}
	}
	return l.Messages(chatID)
}

// Append inserts a message into its chat's log, keeping timestamp order.
// It reports false when the message was already present.
func (l *MessageLog) Append(m models.Message) bool {
	entries := l.logs[m.ChatID]
	for _, existing := range entries {
		if existing.SameAs(m) {
			return false
		}
	}

	// Insert after the last entry whose timestamp does not exceed ours, so
	// ties preserve arrival order.
	i := len(entries)
	for i > 0 && entries[i-1].Timestamp.After(m.Timestamp) {
		i--
	}
	entries = append(entries, models.Message{})
	copy(entries[i+1:], entries[i:])
	entries[i] = m
	l.logs[m.ChatID] = entries
	return true
}

// Messages returns a copy of the chat's log.
func (l *MessageLog) Messages(chatID int64) []models.Message {
	entries := l.logs[chatID]
	if entries == nil {
		return nil
	}
	out := make([]models.Message, len(entries))
	copy(out, entries)
	return out
}

func (l *MessageLog) Clear() {
	l.logs = make(map[int64][]models.Message)
}
