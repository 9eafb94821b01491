package chat

import (
	apperrors "collaborative-code-editor/internal/errors"
	"collaborative-code-editor/internal/event"
	"collaborative-code-editor/redis"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, message *Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockRepository) ListRecent(ctx context.Context, projectID uint64, limit int) ([]Message, error) {
	args := m.Called(ctx, projectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

type MockProjectProvider struct {
	mock.Mock
}

func (m *MockProjectProvider) IsMember(ctx context.Context, projectID uint64, userID uint64) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastChat(payload event.ChatPayload) {
	m.Called(payload)
}

func newTestService(t *testing.T) (Service, *MockRepository, *MockProjectProvider, *MockBroadcaster, *redis.Cache) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cache := redis.NewCacheWithClient(client)

	repo := new(MockRepository)
	projects := new(MockProjectProvider)
	broadcaster := new(MockBroadcaster)
	return NewService(repo, projects, broadcaster, cache), repo, projects, broadcaster, cache
}

func TestGetMessagesRequiresMembership(t *testing.T) {
	service, _, projects, _, _ := newTestService(t)

	projects.On("IsMember", mock.Anything, uint64(7), uint64(3)).Return(false, nil)

	_, err := service.GetMessages(context.Background(), 7, 3, 10)

	assert.Error(t, err)
	apiErr, ok := err.(*apperrors.APIError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestGetMessagesReadsThroughCache(t *testing.T) {
	service, repo, projects, _, cache := newTestService(t)

	projects.On("IsMember", mock.Anything, uint64(7), uint64(1)).Return(true, nil)
	stored := []Message{{ProjectID: 7, SenderID: 1, SenderName: "alice", Content: "newest", SentAt: time.Now().UTC()}}
	repo.On("ListRecent", mock.Anything, uint64(7), 10).Return(stored, nil).Once()

	first, err := service.GetMessages(context.Background(), 7, 1, 10)
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	// The page is cached asynchronously; wait until it lands.
	assert.Eventually(t, func() bool {
		var cached []Message
		found, _ := cache.Get(context.Background(), "chat:p:7:v:0:l:10", &cached)
		return found
	}, 2*time.Second, 10*time.Millisecond)

	second, err := service.GetMessages(context.Background(), 7, 1, 10)
	assert.NoError(t, err)
	assert.Len(t, second, 1)

	repo.AssertNumberOfCalls(t, "ListRecent", 1)
}

func TestGetMessagesClampsOversizedLimit(t *testing.T) {
	service, repo, projects, _, _ := newTestService(t)

	projects.On("IsMember", mock.Anything, uint64(7), uint64(1)).Return(true, nil)
	repo.On("ListRecent", mock.Anything, uint64(7), maxLimit).Return([]Message{}, nil)

	_, err := service.GetMessages(context.Background(), 7, 1, 10000000)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPostMessageBumpsVersionAndBroadcasts(t *testing.T) {
	service, repo, projects, broadcaster, cache := newTestService(t)

	projects.On("IsMember", mock.Anything, uint64(7), uint64(1)).Return(true, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(m *Message) bool {
		return m.Content == "hello" && m.SenderName == "alice" && !m.SentAt.IsZero()
	})).Return(nil)
	broadcaster.On("BroadcastChat", mock.MatchedBy(func(p event.ChatPayload) bool {
		return p.Content == "hello" && p.ProjectID == 7
	})).Return()

	m, err := service.PostMessage(context.Background(), 7, 1, "alice", "hello", time.Now().UTC())

	assert.NoError(t, err)
	assert.Equal(t, "hello", m.Content)
	assert.Equal(t, int64(1), cache.GetVersion(context.Background(), "project:7:chat:version"))
	broadcaster.AssertExpectations(t)
}

func TestPostMessagePreservesSenderTimestamp(t *testing.T) {
	service, repo, projects, broadcaster, _ := newTestService(t)

	sent := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	projects.On("IsMember", mock.Anything, uint64(7), uint64(1)).Return(true, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(m *Message) bool {
		return m.SentAt.Equal(sent)
	})).Return(nil)
	broadcaster.On("BroadcastChat", mock.MatchedBy(func(p event.ChatPayload) bool {
		return p.Time.Equal(sent)
	})).Return()

	// The sender's provisional timestamp is the message's identity. Stamping
	// with the server clock instead would make the broadcast echo miss the
	// sender's optimistic entry and show the message twice.
	m, err := service.PostMessage(context.Background(), 7, 1, "alice", "hello", sent)

	assert.NoError(t, err)
	assert.True(t, m.SentAt.Equal(sent))
	broadcaster.AssertExpectations(t)
}

func TestPostMessageStampsZeroTimestamp(t *testing.T) {
	service, repo, projects, broadcaster, _ := newTestService(t)

	projects.On("IsMember", mock.Anything, uint64(7), uint64(1)).Return(true, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	broadcaster.On("BroadcastChat", mock.Anything).Return()

	m, err := service.PostMessage(context.Background(), 7, 1, "alice", "hello", time.Time{})

	assert.NoError(t, err)
	assert.False(t, m.SentAt.IsZero())
}

func TestPostMessageEmptyContentRejected(t *testing.T) {
	service, repo, _, broadcaster, _ := newTestService(t)

	_, err := service.PostMessage(context.Background(), 7, 1, "alice", "   ", time.Now().UTC())

	assert.Error(t, err)
	apiErr, ok := err.(*apperrors.APIError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	broadcaster.AssertNotCalled(t, "BroadcastChat", mock.Anything)
}

func TestPostMessageRequiresMembership(t *testing.T) {
	service, _, projects, _, _ := newTestService(t)

	projects.On("IsMember", mock.Anything, uint64(7), uint64(3)).Return(false, nil)

	_, err := service.PostMessage(context.Background(), 7, 3, "eve", "hi", time.Now().UTC())

	assert.Error(t, err)
	apiErr, ok := err.(*apperrors.APIError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}
