package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies transcript, message and viewer ids from the event context
// into the log event.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if path := GetTranscript(ctx); path != "" {
		e.Str("transcript", path)
	}

	if id, ok := GetMessageID(ctx); ok {
		e.Int("message_id", id)
	}

	if id := GetViewerID(ctx); id != "" {
		e.Str("viewer_id", id)
	}
}
