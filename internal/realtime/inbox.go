package realtime

import (
	"collaborative-code-editor/internal/event"
	"sync"
	"time"
)

// Notification is one received notification.
type Notification struct {
	Title   string
	Message string
	Time    time.Time
}

// Inbox is the local, append-only notification list. There is no server-side
// read state; the unseen counter is purely client-local.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	seen  int
}

func NewInbox() *Inbox {
	return &Inbox{}
}

func (b *Inbox) Add(p event.NotificationPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, Notification{
		Title:   p.Title,
		Message: p.Message,
		Time:    p.Time,
	})
}

// All returns a copy of every notification, oldest-first.
func (b *Inbox) All() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Inbox) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Unseen reports how many notifications arrived since MarkSeen.
func (b *Inbox) Unseen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) - b.seen
}

func (b *Inbox) MarkSeen() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = len(b.items)
}
