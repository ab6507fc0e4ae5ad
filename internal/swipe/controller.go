// Package swipe implements browsing of stored message alternatives ("swipes")
// without changing the transcript's permanent selection.
//
// A message is unlocked by opening a session in the Registry. While the
// session is open the Controller moves the message's active index and asks the
// Reconciler to redraw; closing the session restores the index captured at
// open time.
package swipe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/rs/zerolog"
)

// Direction is a single step through the alternatives.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// Label describes the position of the active alternative, e.g. "2/3".
type Label struct {
	Text       string
	IsOriginal bool
}

// Controller is the interaction surface of swipe navigation. All mutation of
// sessions goes through it.
//
// mu orders each index write with the render it issues, so render sequence
// numbers follow the order of mutations even when scans close sessions from
// another goroutine.
type Controller struct {
	mu sync.Mutex

	ctx        context.Context
	store      transcript.Store
	registry   *Registry
	reconciler *Reconciler
	translator Translator
	macros     render.MacroSource
	bus        *eventbus.EventBus
	logger     zerolog.Logger
}

// Deps bundles the collaborators of a Controller. Translator and Bus are
// optional.
type Deps struct {
	Store      transcript.Store
	Registry   *Registry
	Reconciler *Reconciler
	Translator Translator
	Macros     render.MacroSource
	Bus        *eventbus.EventBus
	Logger     zerolog.Logger
}

// NewController creates a controller. ctx scopes the renders it issues.
func NewController(ctx context.Context, deps Deps) *Controller {
	macros := deps.Macros
	if macros == nil {
		macros = render.FromStore(deps.Store, "")
	}
	return &Controller{
		ctx:        ctx,
		store:      deps.Store,
		registry:   deps.Registry,
		reconciler: deps.Reconciler,
		translator: deps.Translator,
		macros:     macros,
		bus:        deps.Bus,
		logger:     deps.Logger,
	}
}

// Open unlocks id and redraws it at its current alternative.
func (c *Controller) Open(id int) (Session, error) {
	c.mu.Lock()
	s, err := c.registry.Open(id)
	if err == nil {
		c.reconciler.Render(c.ctx, id, s.OriginalIndex, false)
	}
	c.mu.Unlock()

	if err != nil {
		c.reject(id, err)
		return Session{}, err
	}

	c.logger.Debug().Int("message_id", id).Int("original", s.OriginalIndex).Msg("session opened")

	if c.bus != nil {
		c.bus.PublishSessionOpened(eventbus.SessionOpenedPayload{
			MessageID:     id,
			OriginalIndex: s.OriginalIndex,
		})
	}
	return s, nil
}

// Close locks id, restoring the original alternative and redrawing it with
// translation disabled. ErrNotOpen is a no-op for callers.
func (c *Controller) Close(id int) (Session, error) {
	c.mu.Lock()
	s, err := c.registry.Close(id)
	if err == nil {
		c.restore(s)
	}
	c.mu.Unlock()

	switch {
	case errors.Is(err, ErrNotOpen):
		c.reject(id, err)
		return Session{}, err
	case err != nil:
		c.logger.Warn().Err(err).Int("message_id", id).Msg("session closed without restore")
		return s, err
	}

	c.closed(s)
	return s, nil
}

// CloseAll locks every unlocked message.
func (c *Controller) CloseAll() []Session {
	c.mu.Lock()
	sessions := c.registry.CloseAll()
	for _, s := range sessions {
		c.restore(s)
	}
	c.mu.Unlock()

	for _, s := range sessions {
		c.closed(s)
	}
	return sessions
}

// Discard drops the session of a message that was removed or replaced in the
// transcript. Nothing is restored: the original index belongs to the old
// message. A message still present is redrawn at its current alternative.
func (c *Controller) Discard(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry.Discard(id); !ok {
		return false
	}
	c.logger.Debug().Int("message_id", id).Msg("session discarded")

	if msg, err := c.store.Message(id); err == nil {
		c.reconciler.Render(c.ctx, id, msg.ActiveIndex, false)
	}
	return true
}

// Toggle opens id when it is locked and closes it otherwise.
func (c *Controller) Toggle(id int) (opened bool, err error) {
	if c.registry.IsOpen(id) {
		_, err = c.Close(id)
		return false, err
	}
	_, err = c.Open(id)
	return err == nil, err
}

// Move steps the active alternative of an unlocked message. It returns the new
// index, or false when id is locked or already at the boundary; in that case
// nothing is written and no redraw is issued. Movement never wraps.
func (c *Controller) Move(id int, dir Direction) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index, translate, ok := c.registry.step(id, int(dir))
	if !ok {
		return 0, false
	}
	c.reconciler.Render(c.ctx, id, index, translate)
	return index, true
}

// SetTranslation toggles translated display for an unlocked message and
// reports whether the flag changed.
func (c *Controller) SetTranslation(id int, enabled bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	index, changed := c.registry.setTranslation(id, enabled)
	if !changed {
		return false
	}
	c.reconciler.Render(c.ctx, id, index, enabled)
	return true
}

// Label formats the active position of an unlocked message.
func (c *Controller) Label(id int) (Label, error) {
	s, ok := c.registry.Get(id)
	if !ok {
		return Label{}, fmt.Errorf("message %d: %w", id, ErrNotOpen)
	}

	msg, err := c.store.Message(id)
	if err != nil {
		return Label{}, err
	}

	return Label{
		Text:       fmt.Sprintf("%d/%d", msg.ActiveIndex+1, len(msg.Swipes)),
		IsOriginal: msg.ActiveIndex == s.OriginalIndex,
	}, nil
}

// CopyActiveText returns the plain text of the active alternative: the
// translation when enabled and available, the raw alternative otherwise.
// Session state is not modified.
func (c *Controller) CopyActiveText(ctx context.Context, id int) (string, error) {
	s, ok := c.registry.Get(id)
	if !ok {
		return "", fmt.Errorf("message %d: %w", id, ErrNotOpen)
	}

	msg, err := c.store.Message(id)
	if err != nil {
		return "", err
	}

	text := c.macros().Apply(msg.Active())
	if s.TranslationEnabled && c.translator != nil {
		if translated, ok := c.translator.Lookup(ctx, id, msg.ActiveIndex); ok {
			text = translated
		}
	}

	return render.Strip(text), nil
}

// IsOpen reports whether id is unlocked.
func (c *Controller) IsOpen(id int) bool {
	return c.registry.IsOpen(id)
}

// Get returns the session for id.
func (c *Controller) Get(id int) (Session, bool) {
	return c.registry.Get(id)
}

// AnyOpen reports whether any message is unlocked.
func (c *Controller) AnyOpen() bool {
	return c.registry.AnyOpen()
}

// AllowTranscriptNavigation reports whether the host may move its selection
// between messages. It is false while any message is unlocked.
func (c *Controller) AllowTranscriptNavigation() bool {
	return !c.registry.AnyOpen()
}

// restore redraws a closed session's original alternative. Callers hold mu.
func (c *Controller) restore(s Session) {
	c.reconciler.Render(c.ctx, s.ID, s.OriginalIndex, false)
}

func (c *Controller) closed(s Session) {
	c.logger.Debug().Int("message_id", s.ID).Int("restored", s.OriginalIndex).Msg("session closed")

	if c.bus != nil {
		c.bus.PublishSessionClosed(eventbus.SessionClosedPayload{
			MessageID:     s.ID,
			RestoredIndex: s.OriginalIndex,
		})
	}
}

func (c *Controller) reject(id int, err error) {
	c.logger.Debug().Err(err).Int("message_id", id).Msg("session request rejected")

	if c.bus != nil {
		c.bus.PublishSessionRejected(eventbus.SessionRejectedPayload{
			MessageID: id,
			Err:       err,
			Notice:    Advisory(err),
		})
	}
}
