package realtime

import (
	"collaborative-code-editor/internal/event"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// State is the connection lifecycle phase.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateReconnecting:
		return "Reconnecting"
	}
	return "Unknown"
}

var (
	// ErrAuthRejected is terminal: the credential was refused, retrying
	// cannot help.
	ErrAuthRejected = errors.New("realtime: credentials rejected")

	// ErrClosed reports that Close was called.
	ErrClosed = errors.New("realtime: connection closed")

	// ErrNotConnected reports a send attempted with no live socket.
	ErrNotConnected = errors.New("realtime: not connected")
)

// Event is one decoded inbound realtime event. The set is closed; handlers
// dispatch with a type switch.
type Event interface {
	isEvent()
}

type ChatEvent struct {
	event.ChatPayload
}

type NotificationEvent struct {
	event.NotificationPayload
}

type ProjectChangedEvent struct {
	event.ProjectChangedPayload
}

func (ChatEvent) isEvent()           {}
func (NotificationEvent) isEvent()   {}
func (ProjectChangedEvent) isEvent() {}

// EventHandler receives decoded events in receipt order. No ordering holds
// across a reconnect; missed events are not replayed.
type EventHandler func(Event)

// Options tune the reconnect policy. Zero values take defaults.
type Options struct {
	MinBackoff time.Duration // default 250ms
	MaxBackoff time.Duration // default 10s
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.MinBackoff <= 0 {
		o.MinBackoff = 250 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 10 * time.Second
	}
	return o
}

// Conn is one persistent connection to the realtime hub. It is constructed
// once per client session, injected into whatever needs it, and reused
// across project navigations; only the joined group changes.
type Conn struct {
	url   string
	token string
	opts  Options

	mu    sync.Mutex // guards ws and group
	ws    *websocket.Conn
	group string

	state         atomic.Int32
	handler       atomic.Value // EventHandler
	onReconnected atomic.Value // func()

	lifetime context.Context
	cancel   context.CancelFunc
}

// NewConn builds a connection against the hub URL. Nothing is dialed until
// Connect.
func NewConn(url, token string, opts Options) *Conn {
	lifetime, cancel := context.WithCancel(context.Background())
	return &Conn{
		url:      url,
		token:    token,
		opts:     opts.withDefaults(),
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// State returns the current lifecycle phase.
func (c *Conn) State() State {
	return State(c.state.Load())
}

func (c *Conn) setState(s State) {
	c.state.Store(int32(s))
}

// OnEvent registers the single inbound handler, replacing any previous one.
func (c *Conn) OnEvent(h EventHandler) {
	c.handler.Store(h)
}

// OnReconnected registers a callback fired after every successful reconnect,
// once the prior group has been rejoined. Peers' events during the outage are
// not replayed, so the callback should trigger a full re-fetch.
func (c *Conn) OnReconnected(f func()) {
	c.onReconnected.Store(f)
}

// Connect dials the hub, retrying with backoff and jitter until the context
// is canceled or Close is called. A rejected credential is terminal and
// returned as ErrAuthRejected.
func (c *Conn) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	ws, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	c.setState(StateConnected)

	go c.readLoop()
	return nil
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	for attempt := 0; ; attempt++ {
		hdr := http.Header{}
		hdr.Set("Authorization", "Bearer "+c.token)

		ws, resp, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{
			HTTPHeader: hdr,
			HTTPClient: c.opts.HTTPClient,
		})
		if err == nil {
			return ws, nil
		}

		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.lifetime.Done():
			return nil, ErrClosed
		case <-time.After(c.backoff(attempt)):
		}
	}
}

// backoff returns the delay before retry `attempt`, exponential from
// MinBackoff capped at MaxBackoff, with jitter in [d/2, d).
func (c *Conn) backoff(attempt int) time.Duration {
	d := c.opts.MinBackoff
	for i := 0; i < attempt && d < c.opts.MaxBackoff; i++ {
		d *= 2
	}
	if d > c.opts.MaxBackoff {
		d = c.opts.MaxBackoff
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// readLoop delivers inbound events to the handler in receipt order and runs
// the reconnect cycle when the socket drops.
func (c *Conn) readLoop() {
	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws == nil {
			return
		}

		var env event.Envelope
		if err := wsjson.Read(c.lifetime, ws, &env); err != nil {
			if c.lifetime.Err() != nil || c.State() == StateDisconnected {
				return
			}

			c.setState(StateReconnecting)
			if err := c.reconnect(); err != nil {
				log.Printf("realtime: reconnect abandoned: %v", err)
				c.setState(StateDisconnected)
				return
			}
			continue
		}

		c.dispatch(env)
	}
}

// reconnect redials and restores the last-known group membership before the
// connection is considered ready for application traffic.
func (c *Conn) reconnect() error {
	ws, err := c.dial(c.lifetime)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ws = ws
	group := c.group
	c.mu.Unlock()

	if group != "" {
		if err := c.invoke(c.lifetime, event.TargetJoinGroup, event.GroupArgs{GroupID: group}); err != nil {
			// Socket already gone again; the next read error restarts the cycle.
			log.Printf("realtime: rejoin group %s: %v", group, err)
		}
	}

	c.setState(StateConnected)

	if f, ok := c.onReconnected.Load().(func()); ok && f != nil {
		f()
	}
	return nil
}

func (c *Conn) dispatch(env event.Envelope) {
	h, _ := c.handler.Load().(EventHandler)
	if h == nil {
		return
	}

	switch env.Type {
	case event.TypeChat:
		var p event.ChatPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("realtime: bad chat payload: %v", err)
			return
		}
		h(ChatEvent{p})
	case event.TypeNotification:
		var p event.NotificationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("realtime: bad notification payload: %v", err)
			return
		}
		h(NotificationEvent{p})
	case event.TypeProjectChanged:
		var p event.ProjectChangedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("realtime: bad project changed payload: %v", err)
			return
		}
		h(ProjectChangedEvent{p})
	default:
		log.Printf("realtime: unknown event type %q", env.Type)
	}
}

func (c *Conn) invoke(ctx context.Context, target string, args any) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}

	inv, err := event.NewInvocation(target, args)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, ws, inv)
}

// JoinGroup joins the project group, leaving any different current group
// first. The leave is best-effort; a failure is logged, not fatal, because
// the transport may already be gone. Joining the current group is a no-op.
func (c *Conn) JoinGroup(ctx context.Context, groupID string) error {
	c.mu.Lock()
	if c.group == groupID {
		c.mu.Unlock()
		return nil
	}
	prior := c.group
	c.mu.Unlock()

	if prior != "" {
		if err := c.invoke(ctx, event.TargetLeaveGroup, event.GroupArgs{GroupID: prior}); err != nil {
			log.Printf("realtime: leave group %s: %v", prior, err)
		}
	}

	if err := c.invoke(ctx, event.TargetJoinGroup, event.GroupArgs{GroupID: groupID}); err != nil {
		return err
	}

	c.mu.Lock()
	c.group = groupID
	c.mu.Unlock()
	return nil
}

// LeaveGroup leaves the group and clears the membership the reconnect cycle
// would otherwise restore.
func (c *Conn) LeaveGroup(ctx context.Context, groupID string) error {
	err := c.invoke(ctx, event.TargetLeaveGroup, event.GroupArgs{GroupID: groupID})

	c.mu.Lock()
	if c.group == groupID {
		c.group = ""
	}
	c.mu.Unlock()
	return err
}

// CurrentGroup returns the group this connection is joined to, if any.
func (c *Conn) CurrentGroup() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.group
}

// SendNotificationToUser delivers a targeted notification through the hub.
// Fire-and-forget beyond the send result; never retried.
func (c *Conn) SendNotificationToUser(ctx context.Context, userID uint64, title, message string) error {
	return c.invoke(ctx, event.TargetSendNotificationToUser, event.NotifyUserArgs{
		UserID:  userID,
		Title:   title,
		Message: message,
	})
}

// Close tears the connection down for good and stops any retry loop.
func (c *Conn) Close() error {
	c.setState(StateDisconnected)
	c.cancel()

	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		return ws.Close(websocket.StatusNormalClosure, "client closed")
	}
	return nil
}
