package realtime

import (
	"context"
	"log"
)

// NotificationSender delivers one targeted notification. Conn satisfies it.
type NotificationSender interface {
	SendNotificationToUser(ctx context.Context, userID uint64, title, message string) error
}

// Notifier fans notifications out to project members.
type Notifier struct {
	sender NotificationSender
}

func NewNotifier(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifyUser delivers to one user. Fire-and-forget beyond the send result.
func (n *Notifier) NotifyUser(ctx context.Context, userID uint64, title, message string) error {
	return n.sender.SendNotificationToUser(ctx, userID, title, message)
}

// NotifyAllMembers expands one notification into an independent delivery per
// member. A failed delivery is logged and collected, never retried, and
// never blocks delivery to the remaining members.
func (n *Notifier) NotifyAllMembers(ctx context.Context, members []Member, title, message string) []error {
	var failures []error
	for _, m := range members {
		if err := n.sender.SendNotificationToUser(ctx, m.ID, title, message); err != nil {
			log.Printf("realtime: notification to member %d failed: %v", m.ID, err)
			failures = append(failures, err)
		}
	}
	return failures
}
