package event

import (
	"encoding/json"
	"time"
)

// Type discriminates the closed set of events the realtime channel carries.
// Everything a client receives decodes into exactly one of these; downstream
// code dispatches on the enum, never on loosely shaped payload fields.
type Type string

const (
	TypeChat           Type = "chat"
	TypeNotification   Type = "notification"
	TypeProjectChanged Type = "project_changed"
)

// Envelope is the wire frame for server-to-client events.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload under its event type.
func NewEnvelope(t Type, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: t, Payload: raw}, nil
}

// ChatPayload carries one chat message to group members.
type ChatPayload struct {
	SenderID   uint64    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Time       time.Time `json:"time"`
	ProjectID  uint64    `json:"projectId"`
}

// NotificationPayload carries one targeted notification.
type NotificationPayload struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ProjectChangedPayload signals that project state was mutated by a peer.
// Receivers re-fetch authoritative state instead of trusting the payload.
type ProjectChangedPayload struct {
	ProjectID uint64 `json:"projectId"`
}

// Invocation targets understood by the hub.
const (
	TargetJoinGroup              = "JoinGroup"
	TargetLeaveGroup             = "LeaveGroup"
	TargetSendNotificationToUser = "SendNotificationToUser"
)

// Invocation is the wire frame for client-to-server calls.
type Invocation struct {
	Target string          `json:"target"`
	Args   json.RawMessage `json:"args"`
}

// NewInvocation wraps call arguments under their target name.
func NewInvocation(target string, args any) (Invocation, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Invocation{}, err
	}
	return Invocation{Target: target, Args: raw}, nil
}

// GroupArgs are the arguments for JoinGroup and LeaveGroup.
type GroupArgs struct {
	GroupID string `json:"groupId"`
}

// NotifyUserArgs are the arguments for SendNotificationToUser.
type NotifyUserArgs struct {
	UserID  uint64 `json:"userId"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
