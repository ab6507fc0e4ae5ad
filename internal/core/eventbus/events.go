// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within swipeview.
package eventbus

import (
	"github.com/hay-kot/swipeview/internal/core/notify"
)

//go:generate gobusgen generate -p .Events

// Events defines all event types and their payload structs for code generation.
var Events = map[string]any{
	// Keep list sorted A-Z
	"affordance.attached":    AffordanceAttachedPayload{},
	"notification.published": NotificationPublishedPayload{},
	"session.closed":         SessionClosedPayload{},
	"session.opened":         SessionOpenedPayload{},
	"session.rejected":       SessionRejectedPayload{},
	"transcript.changed":     TranscriptChangedPayload{},
	"tui.started":            TUIStartedPayload{},
	"tui.stopped":            TUIStoppedPayload{},
}

// AffordanceAttachedPayload is emitted when a scan attaches the lock toggle to
// messages that did not carry it yet.
type AffordanceAttachedPayload struct {
	MessageIDs []int
}

// NotificationPublishedPayload is emitted for user-facing notices.
type NotificationPublishedPayload struct {
	Level   notify.Level
	Message string
}

// SessionOpenedPayload is emitted when a message is unlocked for browsing.
type SessionOpenedPayload struct {
	MessageID     int
	OriginalIndex int
}

// SessionClosedPayload is emitted when a message is locked again and its
// original selection restored.
type SessionClosedPayload struct {
	MessageID     int
	RestoredIndex int
}

// SessionRejectedPayload is emitted when an unlock or lock request is refused.
type SessionRejectedPayload struct {
	MessageID int
	Err       error
	Notice    string // advisory text shown to the user
}

// TranscriptChangedPayload is emitted when the transcript changed structurally
// (file rewritten, message added, chat switched).
type TranscriptChangedPayload struct {
	Path string
}

// TUIStartedPayload is emitted when the TUI starts.
type TUIStartedPayload struct{}

// TUIStoppedPayload is emitted when the TUI stops.
type TUIStoppedPayload struct{}
