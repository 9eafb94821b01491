package chat

import (
	"collaborative-code-editor/internal/errors"
	"collaborative-code-editor/internal/event"
	"collaborative-code-editor/redis"
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Service defines the interface for chat business logic
type Service interface {
	GetMessages(ctx context.Context, projectID uint64, userID uint64, limit int) ([]Message, error)
	PostMessage(ctx context.Context, projectID uint64, senderID uint64, senderName string, content string, sentAt time.Time) (*Message, error)
}

// ProjectProvider answers membership questions without depending on the
// project package.
type ProjectProvider interface {
	IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error)
}

// Broadcaster pushes a confirmed message to the project group.
type Broadcaster interface {
	BroadcastChat(payload event.ChatPayload)
}

type DefaultService struct {
	repository  Repository
	projects    ProjectProvider
	broadcaster Broadcaster
	cache       *redis.Cache
	now         func() time.Time
}

func NewService(repository Repository, projects ProjectProvider, broadcaster Broadcaster, cache *redis.Cache) Service {
	return &DefaultService{
		repository:  repository,
		projects:    projects,
		broadcaster: broadcaster,
		cache:       cache,
		now:         time.Now,
	}
}

// GetMessages returns the most recent `limit` messages, newest-first. Pages
// are cached per (project, version, limit); posting bumps the version so
// stale pages miss.
func (s *DefaultService) GetMessages(ctx context.Context, projectID uint64, userID uint64, limit int) ([]Message, error) {
	isMember, err := s.projects.IsMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.Forbidden("You are not a member of this project", nil)
	}

	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	versionKey := fmt.Sprintf("project:%d:chat:version", projectID)
	v := s.cache.GetVersion(ctx, versionKey)

	cacheKey := fmt.Sprintf("chat:p:%d:v:%d:l:%d", projectID, v, limit)

	var cached []Message
	found, _ := s.cache.Get(ctx, cacheKey, &cached)
	if found {
		return cached, nil
	}

	messages, err := s.repository.ListRecent(ctx, projectID, limit)
	if err != nil {
		return nil, err
	}

	go s.cache.Set(context.Background(), cacheKey, messages, 24*time.Hour)

	return messages, nil
}

// PostMessage persists and broadcasts a message. sentAt is the sender's
// provisional timestamp and is preserved as the message's identity: the
// sender's optimistic copy and the broadcast echo must carry equal
// (content, time) or the echo would duplicate on the sender's screen.
// A zero sentAt is stamped with the server clock.
func (s *DefaultService) PostMessage(ctx context.Context, projectID uint64, senderID uint64, senderName string, content string, sentAt time.Time) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.BadRequest("Message cannot be empty", nil)
	}

	isMember, err := s.projects.IsMember(ctx, projectID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.Forbidden("You are not a member of this project", nil)
	}

	if sentAt.IsZero() {
		sentAt = s.now()
	}

	m := &Message{
		ProjectID:  projectID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		SentAt:     sentAt.UTC(),
	}
	if err := s.repository.Create(ctx, m); err != nil {
		return nil, err
	}

	versionKey := fmt.Sprintf("project:%d:chat:version", projectID)
	s.cache.IncrementVersion(ctx, versionKey)

	// The durable echo; senders already show the message optimistically and
	// drop this copy on (content, time) equality.
	s.broadcaster.BroadcastChat(m.ToPayload())

	return m, nil
}
