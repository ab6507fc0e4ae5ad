package eventbus

import (
	"fmt"

	"github.com/hay-kot/swipeview/internal/core/notify"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeSessionRejected(func(p SessionRejectedPayload) {
		if p.Notice == "" {
			return
		}
		r.notifyf(notify.LevelWarning, "%s", p.Notice)
	})

	r.bus.SubscribeSessionClosed(func(p SessionClosedPayload) {
		r.notifyf(notify.LevelInfo, "message #%d locked, swipe %d restored", p.MessageID, p.RestoredIndex+1)
	})
}

func (r *NotificationRouter) notifyf(level notify.Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
