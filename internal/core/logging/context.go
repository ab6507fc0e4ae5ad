package logging

import "context"

type contextKey string

const (
	transcriptKey contextKey = "transcript"
	messageIDKey  contextKey = "message_id"
	viewerIDKey   contextKey = "viewer_id"
)

// WithTranscript adds the transcript path to the context.
func WithTranscript(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, transcriptKey, path)
}

// WithMessageID adds a message id to the context.
func WithMessageID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, messageIDKey, id)
}

// WithViewerID adds the id of the running viewer instance to the context.
func WithViewerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, viewerIDKey, id)
}

// GetTranscript retrieves the transcript path from the context.
// Returns empty string if not present.
func GetTranscript(ctx context.Context) string {
	if path, ok := ctx.Value(transcriptKey).(string); ok {
		return path
	}
	return ""
}

// GetMessageID retrieves the message id from the context.
func GetMessageID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(messageIDKey).(int)
	return id, ok
}

// GetViewerID retrieves the viewer id from the context.
// Returns empty string if not present.
func GetViewerID(ctx context.Context) string {
	if id, ok := ctx.Value(viewerIDKey).(string); ok {
		return id
	}
	return ""
}
