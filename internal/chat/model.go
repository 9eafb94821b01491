package chat

import (
	"collaborative-code-editor/internal/event"
	"time"
)

// Message is one persisted chat entry. Messages are immutable once created;
// clients deduplicate on (content, time) because the sender shows a
// provisional copy before the server confirms.
type Message struct {
	ID         uint64    `json:"-"`
	ProjectID  uint64    `json:"projectId"`
	SenderID   uint64    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"time"`
}

// ToPayload converts a message to its realtime event shape.
func (m *Message) ToPayload() event.ChatPayload {
	return event.ChatPayload{
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		Time:       m.SentAt,
		ProjectID:  m.ProjectID,
	}
}
