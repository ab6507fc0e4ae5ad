package swipe

import (
	"context"
	"fmt"
	"sync"

	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/rs/zerolog"
)

// Translator resolves the translation of one alternative. A miss for any
// reason is reported as ok == false.
type Translator interface {
	Lookup(ctx context.Context, id, swipeIndex int) (string, bool)
}

// Rendered is the display update for one message.
type Rendered struct {
	ID         int
	Index      int
	Markup     string
	Translated bool
	Degraded   bool // formatting failed, Markup is escaped plain text
	Seq        uint64
}

// Surface receives display updates. Apply is called with the reconciler's lock
// held and must not call back into the reconciler.
type Surface interface {
	Apply(r Rendered)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Rendered)

// Apply calls f.
func (f SurfaceFunc) Apply(r Rendered) { f(r) }

// Reconciler resolves display text for a message asynchronously and applies
// only the most recently issued request per message id. Results of superseded
// requests are discarded when they arrive.
type Reconciler struct {
	store      transcript.Store
	translator Translator
	formatter  render.Formatter
	macros     render.MacroSource
	surface    Surface
	logger     zerolog.Logger

	mu  sync.Mutex
	seq map[int]uint64
	wg  sync.WaitGroup
}

// NewReconciler creates a reconciler. translator may be nil when no
// translation store is available.
func NewReconciler(store transcript.Store, translator Translator, formatter render.Formatter, surface Surface, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:      store,
		translator: translator,
		formatter:  formatter,
		macros:     render.FromStore(store, ""),
		surface:    surface,
		logger:     logger,
		seq:        make(map[int]uint64),
	}
}

// UseMacros sets the placeholder names substituted into plain text when
// formatting fails. The default takes them from the transcript header.
func (r *Reconciler) UseMacros(m render.MacroSource) {
	if m != nil {
		r.macros = m
	}
}

// Render issues a redraw of message id showing alternative index and returns
// the request's sequence number. Resolution runs on its own goroutine.
func (r *Reconciler) Render(ctx context.Context, id, index int, translate bool) uint64 {
	r.mu.Lock()
	r.seq[id]++
	seq := r.seq[id]
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		out, err := r.resolve(ctx, id, index, translate)
		if err != nil {
			r.logger.Debug().Err(err).Int("message_id", id).Uint64("seq", seq).Msg("render dropped")
			return
		}
		out.Seq = seq
		r.commit(out)
	}()

	return seq
}

// Latest returns the sequence number of the last request issued for id.
func (r *Reconciler) Latest(id int) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq[id]
}

// Wait blocks until all issued renders have finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) commit(out Rendered) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seq[out.ID] != out.Seq {
		r.logger.Debug().
			Int("message_id", out.ID).
			Uint64("seq", out.Seq).
			Uint64("latest", r.seq[out.ID]).
			Msg("discarding stale render")
		return
	}
	r.surface.Apply(out)
}

func (r *Reconciler) resolve(ctx context.Context, id, index int, translate bool) (Rendered, error) {
	msg, err := r.store.Message(id)
	if err != nil {
		return Rendered{}, err
	}

	text, err := msg.Alternative(index)
	if err != nil {
		return Rendered{}, fmt.Errorf("message %d swipe %d: %w", id, index, err)
	}

	out := Rendered{ID: id, Index: index}

	if translate && r.translator != nil {
		if translated, ok := r.translator.Lookup(ctx, id, index); ok {
			text = translated
			out.Translated = true
		}
	}

	markup, err := r.format(text, msg, id)
	if err != nil {
		r.logger.Warn().Err(err).Int("message_id", id).Msg("formatting failed, showing plain text")
		out.Markup = render.Escape(r.macros().Apply(text))
		out.Degraded = true
		return out, nil
	}

	out.Markup = markup
	return out, nil
}

func (r *Reconciler) format(text string, msg transcript.Message, id int) (markup string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", render.ErrFormatting, p)
		}
	}()
	return r.formatter.Format(text, msg.Name, msg.IsSystem, msg.IsUser, id)
}
