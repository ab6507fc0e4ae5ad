package swipeview

import (
	"net/http"
	"time"

	"github.com/hay-kot/swipeview/pkg/iojson"
)

// SessionState describes one unlocked message.
type SessionState struct {
	MessageID     int       `json:"message_id"`
	OriginalIndex int       `json:"original_index"`
	ActiveIndex   int       `json:"active_index"`
	Translation   bool      `json:"translation"`
	OpenedAt      time.Time `json:"opened_at"`
	RenderSeq     uint64    `json:"render_seq"`
}

// State is a snapshot of the viewer runtime.
type State struct {
	Path     string         `json:"path"`
	Messages int            `json:"messages"`
	Policy   string         `json:"policy"`
	Sessions []SessionState `json:"sessions"`
}

// State returns a snapshot of the open sessions.
func (v *Viewer) State() State {
	state := State{
		Path:     v.Path,
		Messages: v.Store.Len(),
		Policy:   string(v.Registry.Policy()),
		Sessions: []SessionState{},
	}

	for _, id := range v.Registry.IDs() {
		s, ok := v.Registry.Get(id)
		if !ok {
			continue
		}

		active := s.OriginalIndex
		if msg, err := v.Store.Message(id); err == nil {
			active = msg.ActiveIndex
		}

		state.Sessions = append(state.Sessions, SessionState{
			MessageID:     id,
			OriginalIndex: s.OriginalIndex,
			ActiveIndex:   active,
			Translation:   s.TranslationEnabled,
			OpenedAt:      s.OpenedAt,
			RenderSeq:     v.Reconciler.Latest(id),
		})
	}

	return state
}

// StateHandler serves State as JSON.
func (v *Viewer) StateHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := iojson.Write(w, v.State()); err != nil {
			v.logger.Debug().Err(err).Msg("write state")
		}
	})
}
