package realtime

import (
	"context"
	"log"
	"strconv"
	"sync"
)

// ProjectFetcher loads the authoritative project snapshot.
type ProjectFetcher interface {
	FetchProject(ctx context.Context, projectID uint64) (*ProjectSnapshot, error)
}

// Coordinator glues the realtime layer together: chat events feed the chat
// log, notifications feed the inbox, and everything else triggers a
// reconciling re-fetch of authoritative project state. Event payloads are
// never trusted as ground truth except for chat.
type Coordinator struct {
	conn      *Conn
	projectID uint64
	fetcher   ProjectFetcher
	chat      *ChatLog
	inbox     *Inbox

	mu      sync.Mutex
	project *ProjectSnapshot
	active  *FileInfo
}

func NewCoordinator(conn *Conn, projectID uint64, fetcher ProjectFetcher, chat *ChatLog, inbox *Inbox) *Coordinator {
	return &Coordinator{
		conn:      conn,
		projectID: projectID,
		fetcher:   fetcher,
		chat:      chat,
		inbox:     inbox,
	}
}

// Start hooks the connection, joins the project group and performs the
// initial fetch. Reconnects re-fetch too: events sent during an outage are
// not replayed, so the only safe recovery is a full pull.
func (co *Coordinator) Start(ctx context.Context) error {
	co.conn.OnEvent(co.handle)
	co.conn.OnReconnected(func() {
		if err := co.Refresh(context.Background()); err != nil {
			log.Printf("realtime: refresh after reconnect: %v", err)
		}
	})

	if err := co.conn.JoinGroup(ctx, strconv.FormatUint(co.projectID, 10)); err != nil {
		return err
	}

	if err := co.Refresh(ctx); err != nil {
		return err
	}
	return co.chat.Load(ctx)
}

func (co *Coordinator) handle(ev Event) {
	switch e := ev.(type) {
	case ChatEvent:
		co.chat.OnIncoming(e.ChatPayload)
	case NotificationEvent:
		co.inbox.Add(e.NotificationPayload)
	case ProjectChangedEvent:
		if err := co.Refresh(context.Background()); err != nil {
			log.Printf("realtime: refresh after project change: %v", err)
		}
	}
}

// Refresh replaces local project state with an authoritative fetch. The
// active file selection survives when its id still exists; otherwise it
// falls back to the first file, or none.
func (co *Coordinator) Refresh(ctx context.Context) error {
	p, err := co.fetcher.FetchProject(ctx, co.projectID)
	if err != nil {
		return err
	}

	co.mu.Lock()
	defer co.mu.Unlock()

	co.project = p

	if co.active != nil {
		for i := range p.Files {
			if p.Files[i].ID == co.active.ID {
				co.active = &p.Files[i]
				return nil
			}
		}
	}

	if len(p.Files) > 0 {
		co.active = &p.Files[0]
	} else {
		co.active = nil
	}
	return nil
}

// SelectFile makes the file with the given id active. Reports whether the
// id exists in the current snapshot.
func (co *Coordinator) SelectFile(fileID uint64) bool {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.project == nil {
		return false
	}
	for i := range co.project.Files {
		if co.project.Files[i].ID == fileID {
			co.active = &co.project.Files[i]
			return true
		}
	}
	return false
}

// ActiveFile returns a copy of the active file, or nil when none is selected.
func (co *Coordinator) ActiveFile() *FileInfo {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.active == nil {
		return nil
	}
	f := *co.active
	return &f
}

// Project returns the last fetched snapshot, or nil before the first fetch.
func (co *Coordinator) Project() *ProjectSnapshot {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.project == nil {
		return nil
	}
	p := *co.project
	return &p
}
