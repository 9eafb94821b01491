package realtime

import (
	"collaborative-code-editor/internal/event"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// pageIncrement is how many more messages "read more" requests.
const pageIncrement = 10

// Message is one chat log entry. Optimistic entries carry a LocalID so a
// failed send can be rolled back precisely; confirmed entries keep their
// identity as (content, time) for deduplication against the realtime echo.
type Message struct {
	event.ChatPayload
	LocalID string `json:"-"`
	Pending bool   `json:"-"`
}

// PageFetcher loads a chat page from the API, newest-first.
type PageFetcher interface {
	FetchMessages(ctx context.Context, projectID uint64, limit int) ([]event.ChatPayload, error)
}

// MessagePoster submits a message through the API. sentAt is the sender's
// provisional timestamp; the server stores and echoes it unchanged so the
// echo dedups against the optimistic entry on (content, time).
type MessagePoster interface {
	PostMessage(ctx context.Context, projectID uint64, content string, sentAt time.Time) error
}

// ChatLog is the ordered, deduplicated, paginated message history for one
// project, with optimistic local echo.
type ChatLog struct {
	projectID uint64
	selfID    uint64
	selfName  string
	fetcher   PageFetcher
	poster    MessagePoster
	now       func() time.Time

	mu       sync.Mutex
	limit    int
	messages []Message // oldest-first
}

func NewChatLog(projectID uint64, selfID uint64, selfName string, fetcher PageFetcher, poster MessagePoster) *ChatLog {
	return &ChatLog{
		projectID: projectID,
		selfID:    selfID,
		selfName:  selfName,
		fetcher:   fetcher,
		poster:    poster,
		now:       time.Now,
		limit:     pageIncrement,
	}
}

// Load fetches the most recent page. The store returns newest-first; the log
// reverses to oldest-first for display.
func (l *ChatLog) Load(ctx context.Context) error {
	l.mu.Lock()
	limit := l.limit
	l.mu.Unlock()

	page, err := l.fetcher.FetchMessages(ctx, l.projectID, limit)
	if err != nil {
		return err
	}

	messages := make([]Message, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		messages = append(messages, Message{ChatPayload: page[i]})
	}

	l.mu.Lock()
	l.messages = messages
	l.mu.Unlock()
	return nil
}

// ReadMore widens the window by one page increment and re-fetches.
func (l *ChatLog) ReadMore(ctx context.Context) error {
	l.mu.Lock()
	l.limit += pageIncrement
	l.mu.Unlock()
	return l.Load(ctx)
}

// Messages returns a copy of the log, oldest-first.
func (l *ChatLog) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Append shows the message immediately as a provisional entry, then submits
// it. On send failure the provisional entry is removed and the error
// surfaced; on success it stays and the realtime echo deduplicates against
// it. A disconnect alone never rolls an optimistic entry back.
func (l *ChatLog) Append(ctx context.Context, content string) error {
	m := Message{
		ChatPayload: event.ChatPayload{
			SenderID:   l.selfID,
			SenderName: l.selfName,
			Content:    content,
			Time:       l.now().UTC(),
			ProjectID:  l.projectID,
		},
		LocalID: uuid.NewString(),
		Pending: true,
	}

	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()

	if err := l.poster.PostMessage(ctx, l.projectID, content, m.Time); err != nil {
		l.removeLocal(m.LocalID)
		return err
	}
	return nil
}

func (l *ChatLog) removeLocal(localID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, m := range l.messages {
		if m.LocalID == localID {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			return
		}
	}
}

// OnIncoming appends a realtime-delivered message. Messages for another
// project are discarded; a group-switch race can leak them and this filter
// makes the race harmless. A message whose (content, time) already exists is
// the durable echo of an optimistic entry and is discarded too. Reports
// whether the message was appended.
func (l *ChatLog) OnIncoming(p event.ChatPayload) bool {
	if p.ProjectID != l.projectID {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range l.messages {
		if m.Content == p.Content && m.Time.Equal(p.Time) {
			return false
		}
	}

	l.messages = append(l.messages, Message{ChatPayload: p})
	return true
}
