package hub

import (
	"collaborative-code-editor/internal/event"
	"collaborative-code-editor/internal/worker"
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
)

// Hub maintains the set of active realtime sessions and the project group
// each one is joined to. A session belongs to at most one group at a time.
type Hub struct {
	// Register requests from sessions
	Register chan *Session

	// Unregister requests from sessions
	Unregister chan *Session

	mu       sync.RWMutex
	sessions map[*Session]bool

	pool *worker.Pool
}

// NewHub creates a new realtime hub. The worker pool runs per-member
// notification deliveries independently.
func NewHub(pool *worker.Pool) *Hub {
	return &Hub{
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
		sessions:   make(map[*Session]bool),
		pool:       pool,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.Register:
			h.registerSession(s)
		case s := <-h.Unregister:
			h.unregisterSession(s)
		}
	}
}

func (h *Hub) registerSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s] = true
	log.Printf("Session connected: user %d", s.userID)
}

func (h *Hub) unregisterSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.send)
		log.Printf("Session disconnected: user %d", s.userID)
	}
}

// joinGroup moves a session into a group, implicitly leaving any prior one.
func (h *Hub) joinGroup(s *Session, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.group == groupID {
		return
	}
	if s.group != "" {
		log.Printf("Session user %d switching group %s -> %s", s.userID, s.group, groupID)
	}
	s.group = groupID
}

func (h *Hub) leaveGroup(s *Session, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.group == groupID {
		s.group = ""
	}
}

// BroadcastToGroup sends an event to every session joined to the group.
func (h *Hub) BroadcastToGroup(groupID string, env event.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.sessions {
		if s.group != groupID {
			continue
		}
		select {
		case s.send <- env:
		default:
			log.Printf("Send buffer full for user %d, dropping event", s.userID)
		}
	}
}

// BroadcastChat pushes a confirmed chat message to its project group.
func (h *Hub) BroadcastChat(payload event.ChatPayload) {
	env, err := event.NewEnvelope(event.TypeChat, payload)
	if err != nil {
		log.Printf("Failed to marshal chat event: %v", err)
		return
	}
	h.BroadcastToGroup(strconv.FormatUint(payload.ProjectID, 10), env)
}

// BroadcastProjectChanged signals project members to re-fetch state.
func (h *Hub) BroadcastProjectChanged(projectID uint64) {
	env, err := event.NewEnvelope(event.TypeProjectChanged, event.ProjectChangedPayload{
		ProjectID: projectID,
	})
	if err != nil {
		log.Printf("Failed to marshal project changed event: %v", err)
		return
	}
	h.BroadcastToGroup(strconv.FormatUint(projectID, 10), env)
}

// NotifyUser delivers a notification to every session of one user. Returns
// an error when the user has no reachable session; callers treat that as a
// transient miss, not a failure of the triggering operation.
func (h *Hub) NotifyUser(userID uint64, title, message string) error {
	env, err := event.NewEnvelope(event.TypeNotification, event.NotificationPayload{
		Title:   title,
		Message: message,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for s := range h.sessions {
		if s.userID != userID {
			continue
		}
		select {
		case s.send <- env:
			delivered = true
		default:
			log.Printf("Send buffer full for user %d, dropping notification", s.userID)
		}
	}

	if !delivered {
		return fmt.Errorf("user %d has no reachable session", userID)
	}
	return nil
}

// NotifyProjectMembers fans one notification out to every member, each
// delivery independent. A failed delivery never blocks the rest.
func (h *Hub) NotifyProjectMembers(memberIDs []uint64, title, message string) {
	for _, id := range memberIDs {
		userID := id
		h.pool.Submit(func(ctx context.Context) error {
			if err := h.NotifyUser(userID, title, message); err != nil {
				log.Printf("Notification to user %d not delivered: %v", userID, err)
			}
			// Misses are expected for offline members; never retried.
			return nil
		})
	}
}
