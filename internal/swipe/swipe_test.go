package swipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/eventbus/testbus"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	applied []Rendered
}

func (r *recorder) Apply(out Rendered) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, out)
}

func (r *recorder) all() []Rendered {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Rendered(nil), r.applied...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = nil
}

func (r *recorder) last(id int) (Rendered, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.applied) - 1; i >= 0; i-- {
		if r.applied[i].ID == id {
			return r.applied[i], true
		}
	}
	return Rendered{}, false
}

// mapTranslator answers from a fixed table, optionally blocking per swipe
// index until the test releases the gate.
type mapTranslator struct {
	results map[int]string
	gates   map[int]chan struct{}
}

func (m *mapTranslator) Lookup(_ context.Context, _, swipeIndex int) (string, bool) {
	if gate, ok := m.gates[swipeIndex]; ok {
		<-gate
	}
	v, ok := m.results[swipeIndex]
	return v, ok
}

var bracketFormatter = render.FormatterFunc(func(content, _ string, _, _ bool, _ int) (string, error) {
	return "[" + content + "]", nil
})

type fixture struct {
	ctrl  *Controller
	store *transcript.Memory
	rec   *recorder
	recon *Reconciler
}

type fixtureOpts struct {
	policy     Policy
	translator Translator
	formatter  render.Formatter
	bus        *eventbus.EventBus
}

func newFixture(t *testing.T, msgs []transcript.Message, opts fixtureOpts) *fixture {
	t.Helper()

	if opts.formatter == nil {
		opts.formatter = bracketFormatter
	}

	store := transcript.NewMemory(transcript.Meta{UserName: "Ann", CharacterName: "Sera"}, msgs)
	rec := &recorder{}
	recon := NewReconciler(store, opts.translator, opts.formatter, rec, zerolog.Nop())
	ctrl := NewController(context.Background(), Deps{
		Store:      store,
		Registry:   NewRegistry(store, opts.policy),
		Reconciler: recon,
		Translator: opts.translator,
		Bus:        opts.bus,
		Logger:     zerolog.Nop(),
	})

	t.Cleanup(recon.Wait)

	return &fixture{ctrl: ctrl, store: store, rec: rec, recon: recon}
}

func abc() []transcript.Message {
	return []transcript.Message{
		{Name: "Sera", Content: "A", Swipes: []string{"A", "B", "C"}},
		{Name: "Ann", IsUser: true, Content: "hello"},
		{Name: "Sera", Content: "only", Swipes: []string{"only"}},
		{Name: "Sera", Content: "Y", Swipes: []string{"X", "Y"}, ActiveIndex: 1},
	}
}

func activeIndex(t *testing.T, store transcript.Store, id int) int {
	t.Helper()
	msg, err := store.Message(id)
	require.NoError(t, err)
	return msg.ActiveIndex
}

func TestOpen_Rejections(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	tests := []struct {
		name string
		id   int
		want error
	}{
		{"no swipes", 1, ErrNoSwipeData},
		{"single swipe", 2, ErrSingleSwipeOnly},
		{"missing message", 42, transcript.ErrMessageNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ctrl.Open(tt.id)
			require.ErrorIs(t, err, tt.want)
			assert.False(t, f.ctrl.IsOpen(tt.id))
			assert.False(t, f.ctrl.AnyOpen())
		})
	}
}

func TestOpen_AlreadyOpen(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)

	_, err = f.ctrl.Open(0)
	require.ErrorIs(t, err, ErrAlreadyOpen)
	assert.Equal(t, []int{0}, f.ctrl.registry.IDs())
}

func TestScenario_BrowseAndRestore(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	s, err := f.ctrl.Open(0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.OriginalIndex)
	assert.False(t, s.TranslationEnabled)

	label, err := f.ctrl.Label(0)
	require.NoError(t, err)
	assert.Equal(t, Label{Text: "1/3", IsOriginal: true}, label)

	idx, ok := f.ctrl.Move(0, Next)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	msg, _ := f.store.Message(0)
	assert.Equal(t, "B", msg.Content)

	label, _ = f.ctrl.Label(0)
	assert.Equal(t, Label{Text: "2/3", IsOriginal: false}, label)

	idx, ok = f.ctrl.Move(0, Next)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	label, _ = f.ctrl.Label(0)
	assert.Equal(t, "3/3", label.Text)

	f.recon.Wait()
	seq := f.recon.Latest(0)

	_, ok = f.ctrl.Move(0, Next)
	assert.False(t, ok, "clamped at the last swipe")
	assert.Equal(t, 2, activeIndex(t, f.store, 0))
	assert.Equal(t, seq, f.recon.Latest(0), "no redraw issued")

	closed, err := f.ctrl.Close(0)
	require.NoError(t, err)
	assert.Equal(t, 0, closed.OriginalIndex)
	assert.Equal(t, 0, activeIndex(t, f.store, 0))
	assert.False(t, f.ctrl.IsOpen(0))

	f.recon.Wait()
	last, ok := f.rec.last(0)
	require.True(t, ok)
	assert.Equal(t, "[A]", last.Markup)
	assert.False(t, last.Translated)
}

func TestMove_LowerBoundIsIdempotent(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)
	f.recon.Wait()
	seq := f.recon.Latest(0)

	for range 3 {
		_, ok := f.ctrl.Move(0, Prev)
		assert.False(t, ok)
	}

	assert.Equal(t, 0, activeIndex(t, f.store, 0))
	assert.Equal(t, seq, f.recon.Latest(0))
}

func TestMove_LockedMessageIsNoop(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	_, ok := f.ctrl.Move(0, Next)
	assert.False(t, ok)
	assert.Equal(t, 0, activeIndex(t, f.store, 0))
	assert.Zero(t, f.recon.Latest(0))
}

func TestClose_RestoresAfterAnyMoves(t *testing.T) {
	moves := [][]Direction{
		{},
		{Prev},
		{Prev, Prev, Next},
		{Next, Next, Next},
		{Prev, Next, Prev, Next, Prev},
	}

	for i, seq := range moves {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			f := newFixture(t, abc(), fixtureOpts{})

			_, err := f.ctrl.Open(3)
			require.NoError(t, err)

			for _, d := range seq {
				f.ctrl.Move(3, d)
				idx := activeIndex(t, f.store, 3)
				assert.GreaterOrEqual(t, idx, 0)
				assert.Less(t, idx, 2)

				label, err := f.ctrl.Label(3)
				require.NoError(t, err)
				assert.Equal(t, idx == 1, label.IsOriginal)
			}

			_, err = f.ctrl.Close(3)
			require.NoError(t, err)
			assert.Equal(t, 1, activeIndex(t, f.store, 3))
		})
	}
}

func TestClose_NotOpen(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	_, err := f.ctrl.Close(0)
	require.ErrorIs(t, err, ErrNotOpen)
	assert.Zero(t, f.recon.Latest(0))
}

func TestClose_MessageRemovedByReload(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	_, err := f.ctrl.Open(3)
	require.NoError(t, err)

	f.store.Reload(transcript.Meta{}, abc()[:1], f.ctrl.IsOpen)

	_, err = f.ctrl.Close(3)
	require.ErrorIs(t, err, transcript.ErrMessageNotFound)
	assert.False(t, f.ctrl.IsOpen(3))
}

func TestDiscard_KeepsCurrentIndex(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)
	f.ctrl.Move(0, Next)
	f.recon.Wait()

	assert.True(t, f.ctrl.Discard(0))
	assert.False(t, f.ctrl.IsOpen(0))
	assert.Equal(t, 1, activeIndex(t, f.store, 0), "nothing is restored")

	f.recon.Wait()
	last, ok := f.rec.last(0)
	require.True(t, ok)
	assert.Equal(t, "[B]", last.Markup)

	assert.False(t, f.ctrl.Discard(0))
}

func TestPolicySingle_Conflict(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{policy: PolicySingle})

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)

	_, err = f.ctrl.Open(3)
	require.ErrorIs(t, err, ErrConflict)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 0, conflict.Other)
	assert.Equal(t, []int{0}, f.ctrl.registry.IDs())

	_, err = f.ctrl.Close(0)
	require.NoError(t, err)
	_, err = f.ctrl.Open(3)
	require.NoError(t, err)
}

func TestPolicyConcurrent_IndependentSessions(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)
	_, err = f.ctrl.Open(3)
	require.NoError(t, err)

	f.ctrl.Move(0, Next)
	f.ctrl.Move(3, Prev)
	assert.True(t, f.ctrl.SetTranslation(3, true))

	s0, _ := f.ctrl.Get(0)
	s3, _ := f.ctrl.Get(3)
	assert.False(t, s0.TranslationEnabled)
	assert.True(t, s3.TranslationEnabled)

	closed := f.ctrl.CloseAll()
	assert.Len(t, closed, 2)
	assert.Equal(t, 0, activeIndex(t, f.store, 0))
	assert.Equal(t, 1, activeIndex(t, f.store, 3))
	assert.True(t, f.ctrl.AllowTranscriptNavigation())
}

func TestSetTranslation(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{
		translator: &mapTranslator{results: map[int]string{0: "Ā"}},
	})

	assert.False(t, f.ctrl.SetTranslation(0, true), "locked message")

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)

	assert.True(t, f.ctrl.SetTranslation(0, true))
	assert.False(t, f.ctrl.SetTranslation(0, true), "unchanged flag")

	f.recon.Wait()
	last, ok := f.rec.last(0)
	require.True(t, ok)
	assert.Equal(t, "[Ā]", last.Markup)
	assert.True(t, last.Translated)

	f.ctrl.Move(0, Next)
	f.recon.Wait()
	last, _ = f.rec.last(0)
	assert.Equal(t, "[B]", last.Markup, "missing translation falls back to raw")
	assert.False(t, last.Translated)
}

func TestRender_LatestRequestWins(t *testing.T) {
	gate0 := make(chan struct{})
	gate1 := make(chan struct{})
	f := newFixture(t, abc(), fixtureOpts{
		translator: &mapTranslator{
			results: map[int]string{0: "t-A", 1: "t-B"},
			gates:   map[int]chan struct{}{0: gate0, 1: gate1},
		},
	})

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)
	f.recon.Wait()
	f.rec.reset()

	// R1: translated render of swipe 0, blocked in lookup
	require.True(t, f.ctrl.SetTranslation(0, true))
	r1 := f.recon.Latest(0)

	// R2: move to swipe 1, also blocked
	_, ok := f.ctrl.Move(0, Next)
	require.True(t, ok)
	r2 := f.recon.Latest(0)
	require.Greater(t, r2, r1)

	close(gate1)
	require.Eventually(t, func() bool {
		_, ok := f.rec.last(0)
		return ok
	}, time.Second, 5*time.Millisecond)

	close(gate0)
	f.recon.Wait()

	applied := f.rec.all()
	require.Len(t, applied, 1, "stale R1 result must be discarded")
	assert.Equal(t, r2, applied[0].Seq)
	assert.Equal(t, 1, applied[0].Index)
	assert.Equal(t, "[t-B]", applied[0].Markup)
}

func TestRender_FormatterFailureDegrades(t *testing.T) {
	tests := []struct {
		name      string
		formatter render.Formatter
	}{
		{
			name: "error",
			formatter: render.FormatterFunc(func(string, string, bool, bool, int) (string, error) {
				return "", errors.New("bad markup")
			}),
		},
		{
			name: "panic",
			formatter: render.FormatterFunc(func(string, string, bool, bool, int) (string, error) {
				panic("boom")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := []transcript.Message{{Content: "a", Swipes: []string{"a\x1b[2J", "b"}}}
			f := newFixture(t, msgs, fixtureOpts{formatter: tt.formatter})

			_, err := f.ctrl.Open(0)
			require.NoError(t, err)
			f.recon.Wait()

			last, ok := f.rec.last(0)
			require.True(t, ok)
			assert.True(t, last.Degraded)
			assert.Equal(t, "a", last.Markup)

			// later operations keep working
			_, ok = f.ctrl.Move(0, Next)
			assert.True(t, ok)
		})
	}
}

func TestRender_DegradedSubstitutesPlaceholders(t *testing.T) {
	failing := render.FormatterFunc(func(string, string, bool, bool, int) (string, error) {
		return "", errors.New("bad markup")
	})
	msgs := []transcript.Message{{Content: "Hi {{user}}", Swipes: []string{"Hi {{user}}", "<BOT> waves"}}}
	f := newFixture(t, msgs, fixtureOpts{formatter: failing})

	_, err := f.ctrl.Open(0)
	require.NoError(t, err)
	f.recon.Wait()

	last, ok := f.rec.last(0)
	require.True(t, ok)
	assert.True(t, last.Degraded)
	assert.Equal(t, "Hi Ann", last.Markup)

	_, ok = f.ctrl.Move(0, Next)
	require.True(t, ok)
	f.recon.Wait()

	last, _ = f.rec.last(0)
	assert.Equal(t, "Sera waves", last.Markup)
}

func TestMove_RacingCloseAllShowsRestoredAlternative(t *testing.T) {
	for i := 0; i < 200; i++ {
		f := newFixture(t, abc(), fixtureOpts{})

		_, err := f.ctrl.Open(0)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.ctrl.Move(0, Next)
			f.ctrl.Move(0, Next)
		}()
		go func() {
			defer wg.Done()
			f.ctrl.CloseAll()
		}()
		wg.Wait()
		f.recon.Wait()

		require.False(t, f.ctrl.IsOpen(0))
		require.Equal(t, 0, activeIndex(t, f.store, 0))

		last, ok := f.rec.last(0)
		require.True(t, ok)
		require.Equal(t, 0, last.Index, "iteration %d", i)
		require.Equal(t, "[A]", last.Markup, "iteration %d", i)
	}
}

func TestCopyActiveText(t *testing.T) {
	msgs := []transcript.Message{
		{Content: "<b>Hi</b> {{user}}", Swipes: []string{"<b>Hi</b> {{user}}", "Bye\x1b[1m!"}},
	}

	t.Run("not open", func(t *testing.T) {
		f := newFixture(t, msgs, fixtureOpts{})
		_, err := f.ctrl.CopyActiveText(context.Background(), 0)
		require.ErrorIs(t, err, ErrNotOpen)
	})

	t.Run("raw text stripped", func(t *testing.T) {
		f := newFixture(t, msgs, fixtureOpts{})
		_, err := f.ctrl.Open(0)
		require.NoError(t, err)

		text, err := f.ctrl.CopyActiveText(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, "Hi Ann", text)

		f.ctrl.Move(0, Next)
		text, err = f.ctrl.CopyActiveText(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, "Bye!", text)
	})

	t.Run("translation without entry falls back", func(t *testing.T) {
		f := newFixture(t, msgs, fixtureOpts{translator: &mapTranslator{}})
		_, err := f.ctrl.Open(0)
		require.NoError(t, err)
		f.ctrl.SetTranslation(0, true)

		text, err := f.ctrl.CopyActiveText(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, "Hi Ann", text)
	})

	t.Run("translation", func(t *testing.T) {
		f := newFixture(t, msgs, fixtureOpts{
			translator: &mapTranslator{results: map[int]string{0: "<i>Hallo</i> Ann"}},
		})
		_, err := f.ctrl.Open(0)
		require.NoError(t, err)
		f.ctrl.SetTranslation(0, true)

		text, err := f.ctrl.CopyActiveText(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, "Hallo Ann", text)

		s, _ := f.ctrl.Get(0)
		assert.True(t, s.TranslationEnabled, "copy leaves session state alone")
	})
}

func TestAllowTranscriptNavigation(t *testing.T) {
	f := newFixture(t, abc(), fixtureOpts{})

	assert.True(t, f.ctrl.AllowTranscriptNavigation())

	opened, err := f.ctrl.Toggle(0)
	require.NoError(t, err)
	assert.True(t, opened)
	assert.False(t, f.ctrl.AllowTranscriptNavigation())

	opened, err = f.ctrl.Toggle(0)
	require.NoError(t, err)
	assert.False(t, opened)
	assert.True(t, f.ctrl.AllowTranscriptNavigation())
}

func TestController_PublishesEvents(t *testing.T) {
	bus := testbus.New(t)
	f := newFixture(t, abc(), fixtureOpts{bus: bus.EventBus})

	_, err := f.ctrl.Open(1)
	require.Error(t, err)
	bus.AssertPublished(t, eventbus.EventSessionRejected)

	_, err = f.ctrl.Open(0)
	require.NoError(t, err)
	_, err = f.ctrl.Close(0)
	require.NoError(t, err)

	bus.AssertPublished(t, eventbus.EventSessionOpened)
	bus.AssertPublished(t, eventbus.EventSessionClosed)

	for _, e := range bus.Events() {
		if p, ok := e.Payload.(eventbus.SessionRejectedPayload); ok {
			assert.Equal(t, 1, p.MessageID)
			assert.Equal(t, "This message has no alternative content to browse", p.Notice)
		}
	}
}

func TestAdvisory(t *testing.T) {
	assert.Empty(t, Advisory(nil))
	assert.Empty(t, Advisory(ErrAlreadyOpen))
	assert.Contains(t, Advisory(&ConflictError{Other: 4}), "#4")
	assert.NotEmpty(t, Advisory(fmt.Errorf("wrap: %w", ErrSingleSwipeOnly)))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyConcurrent, p)

	p, err = ParsePolicy("single")
	require.NoError(t, err)
	assert.Equal(t, PolicySingle, p)

	_, err = ParsePolicy("many")
	require.Error(t, err)
}
