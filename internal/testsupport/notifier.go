package testsupport

import (
	"context"
	"errors"
	"sync"

	"studio-attendance/internal/service"
)

// ErrNotificationFailed is returned by RecordingNotifier when Fail matches.
var ErrNotificationFailed = errors.New("notification failed")

// RecordingNotifier stores delivered notifications. When Fail returns true the
// notification is rejected and not recorded.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []service.Notification

	Fail func(service.Notification) bool
}

func (n *RecordingNotifier) Send(_ context.Context, notification service.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Fail != nil && n.Fail(notification) {
		return ErrNotificationFailed
	}
	n.sent = append(n.sent, notification)
	return nil
}

// Sent returns a copy of the delivered notifications.
func (n *RecordingNotifier) Sent() []service.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]service.Notification, len(n.sent))
	copy(out, n.sent)
	return out
}
