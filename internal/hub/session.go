package hub

import (
	"collaborative-code-editor/internal/event"
	"context"
	"encoding/json"
	"log"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Session represents one websocket connection of one authenticated user.
type Session struct {
	userID   uint64
	userName string
	conn     *websocket.Conn
	hub      *Hub
	send     chan event.Envelope

	// group is the single project group this session is joined to,
	// guarded by hub.mu.
	group string
}

func newSession(userID uint64, userName string, conn *websocket.Conn, h *Hub) *Session {
	return &Session{
		userID:   userID,
		userName: userName,
		conn:     conn,
		hub:      h,
		send:     make(chan event.Envelope, 64),
	}
}

// readPump decodes inbound invocations until the connection drops.
func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.hub.Unregister <- s
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var inv event.Invocation
		if err := wsjson.Read(ctx, s.conn, &inv); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Printf("Read error for user %d: %v", s.userID, err)
			}
			return
		}
		s.handleInvocation(inv)
	}
}

// writePump flushes queued events to the socket in order.
func (s *Session) writePump(ctx context.Context) {
	for env := range s.send {
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := wsjson.Write(writeCtx, s.conn, env)
		cancel()
		if err != nil {
			log.Printf("Write error for user %d: %v", s.userID, err)
			return
		}
	}
	// send channel closed by the hub on unregister
	s.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Session) handleInvocation(inv event.Invocation) {
	switch inv.Target {
	case event.TargetJoinGroup:
		var args event.GroupArgs
		if err := json.Unmarshal(inv.Args, &args); err != nil {
			log.Printf("Bad JoinGroup args from user %d: %v", s.userID, err)
			return
		}
		s.hub.joinGroup(s, args.GroupID)

	case event.TargetLeaveGroup:
		var args event.GroupArgs
		if err := json.Unmarshal(inv.Args, &args); err != nil {
			log.Printf("Bad LeaveGroup args from user %d: %v", s.userID, err)
			return
		}
		s.hub.leaveGroup(s, args.GroupID)

	case event.TargetSendNotificationToUser:
		var args event.NotifyUserArgs
		if err := json.Unmarshal(inv.Args, &args); err != nil {
			log.Printf("Bad SendNotificationToUser args from user %d: %v", s.userID, err)
			return
		}
		if err := s.hub.NotifyUser(args.UserID, args.Title, args.Message); err != nil {
			log.Printf("Notification from user %d to %d not delivered: %v", s.userID, args.UserID, err)
		}

	default:
		log.Printf("Unknown invocation target %q from user %d", inv.Target, s.userID)
	}
}
