package swipe

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/hay-kot/swipeview/internal/core/transcript"
)

// Policy controls how many sessions may be open at once.
type Policy string

const (
	// PolicyConcurrent allows any number of unlocked messages.
	PolicyConcurrent Policy = "concurrent"
	// PolicySingle allows one unlocked message; opening a second one fails
	// with a *ConflictError.
	PolicySingle Policy = "single"
)

// ParsePolicy parses a configured policy name. The empty string selects
// PolicyConcurrent.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyConcurrent:
		return PolicyConcurrent, nil
	case PolicySingle:
		return PolicySingle, nil
	default:
		return "", fmt.Errorf("unknown session policy %q", s)
	}
}

// Session is the navigation state of one unlocked message.
type Session struct {
	ID                 int
	OriginalIndex      int
	TranslationEnabled bool
	OpenedAt           time.Time
}

// Registry is the set of unlocked messages keyed by message id. A message
// appears at most once; absence means it is locked.
type Registry struct {
	mu       sync.Mutex
	store    transcript.Store
	policy   Policy
	sessions map[int]*Session
	now      func() time.Time
}

// NewRegistry creates an empty registry over store.
func NewRegistry(store transcript.Store, policy Policy) *Registry {
	if policy == "" {
		policy = PolicyConcurrent
	}
	return &Registry{
		store:    store,
		policy:   policy,
		sessions: make(map[int]*Session),
		now:      time.Now,
	}
}

// Policy returns the registry's session policy.
func (r *Registry) Policy() Policy {
	return r.policy
}

// Open unlocks id, capturing its active index as the original. Rejections leave
// the registry unchanged.
func (r *Registry) Open(id int) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return Session{}, fmt.Errorf("message %d: %w", id, ErrAlreadyOpen)
	}

	msg, err := r.store.Message(id)
	if err != nil {
		return Session{}, err
	}

	switch len(msg.Alternatives()) {
	case 0:
		return Session{}, fmt.Errorf("message %d: %w", id, ErrNoSwipeData)
	case 1:
		return Session{}, fmt.Errorf("message %d: %w", id, ErrSingleSwipeOnly)
	}

	if r.policy == PolicySingle {
		for other := range r.sessions {
			return Session{}, &ConflictError{Other: other}
		}
	}

	s := &Session{
		ID:            id,
		OriginalIndex: msg.ActiveIndex,
		OpenedAt:      r.now(),
	}
	r.sessions[id] = s
	return *s, nil
}

// Close locks id and restores the original index. The session is removed even
// when the restore fails because the message disappeared from the transcript;
// that failure is returned alongside the removed session.
func (r *Registry) Close(id int) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("message %d: %w", id, ErrNotOpen)
	}
	delete(r.sessions, id)

	if err := r.store.SetActiveIndex(id, s.OriginalIndex); err != nil {
		return *s, fmt.Errorf("restore message %d: %w", id, err)
	}
	return *s, nil
}

// Discard removes the session for id without restoring its original index.
// It is used when the message under the session was removed or replaced.
func (r *Registry) Discard(id int) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, id)
	return *s, true
}

// CloseAll closes every open session in id order.
func (r *Registry) CloseAll() []Session {
	closed := make([]Session, 0)
	for _, id := range r.IDs() {
		s, err := r.Close(id)
		if errors.Is(err, ErrNotOpen) {
			continue
		}
		closed = append(closed, s)
	}
	return closed
}

// IsOpen reports whether id is unlocked.
func (r *Registry) IsOpen(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	return ok
}

// Get returns a copy of the session for id.
func (r *Registry) Get(id int) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// AnyOpen reports whether at least one message is unlocked.
func (r *Registry) AnyOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions) > 0
}

// IDs returns the unlocked message ids in ascending order.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.sessions))
}

// step moves the active index of an open session by delta, clamped to the
// alternatives. ok is false when nothing changed.
func (r *Registry) step(id, delta int) (index int, translate bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, open := r.sessions[id]
	if !open {
		return 0, false, false
	}

	msg, err := r.store.Message(id)
	if err != nil {
		return 0, false, false
	}

	candidate := min(max(msg.ActiveIndex+delta, 0), len(msg.Swipes)-1)
	if candidate == msg.ActiveIndex || candidate < 0 {
		return 0, false, false
	}

	if err := r.store.SetActiveIndex(id, candidate); err != nil {
		return 0, false, false
	}
	return candidate, s.TranslationEnabled, true
}

// setTranslation updates the translation flag, returning the active index and
// whether the flag changed.
func (r *Registry) setTranslation(id int, enabled bool) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.TranslationEnabled == enabled {
		return 0, false
	}

	msg, err := r.store.Message(id)
	if err != nil {
		return 0, false
	}

	s.TranslationEnabled = enabled
	return msg.ActiveIndex, true
}
