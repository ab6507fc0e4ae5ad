package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs every published event at debug level with the
// message ids it concerns. Subscriptions are traced, dropped events warn and
// subscriber panics are errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		logPayload(logger.Debug().Str("event", string(event)), payload).Msg("event")
	})

	bus.OnSubscribe(func(event Event) {
		logger.Trace().Str("event", string(event)).Msg("subscribed")
	})

	bus.OnDrop(func(event Event, payload any) {
		logPayload(logger.Warn().Str("event", string(event)), payload).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func logPayload(e *zerolog.Event, payload any) *zerolog.Event {
	switch p := payload.(type) {
	case SessionOpenedPayload:
		return e.Int("message_id", p.MessageID).Int("original_index", p.OriginalIndex)
	case SessionClosedPayload:
		return e.Int("message_id", p.MessageID).Int("restored_index", p.RestoredIndex)
	case SessionRejectedPayload:
		return e.Int("message_id", p.MessageID).AnErr("reason", p.Err)
	case AffordanceAttachedPayload:
		return e.Ints("message_ids", p.MessageIDs)
	case TranscriptChangedPayload:
		return e.Str("path", p.Path)
	case NotificationPublishedPayload:
		return e.Str("level", string(p.Level))
	default:
		return e
	}
}
