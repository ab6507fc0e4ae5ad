package swipeview

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/logging"
	"github.com/hay-kot/swipeview/internal/core/styles"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/hay-kot/swipeview/internal/scanner"
	"github.com/hay-kot/swipeview/internal/swipe"
	"github.com/hay-kot/swipeview/internal/swipeview/sweep"
	"github.com/hay-kot/swipeview/internal/translate"
)

// OpenOptions configures a Viewer.
type OpenOptions struct {
	// Surface receives committed renders. Required.
	Surface swipe.Surface
	// OnScan is called after every presence scan.
	OnScan func(scanner.Result)
	// Formatter overrides the markdown formatter.
	Formatter render.Formatter
	// Watch enables reloading when the transcript file changes.
	Watch bool
}

// Viewer holds the runtime of one opened transcript.
type Viewer struct {
	Path         string
	Store        *transcript.Memory
	Registry     *swipe.Registry
	Reconciler   *swipe.Reconciler
	Controller   *swipe.Controller
	Scanner      *scanner.Scanner
	Formatter    render.Formatter
	Translations *translate.Store

	bus     *eventbus.EventBus
	watcher *transcript.Watcher
	logger  zerolog.Logger
	cancel  context.CancelFunc
}

// Open loads the transcript at path and wires a swipe controller over it.
// The returned viewer does nothing until Start is called.
func (a *App) Open(ctx context.Context, path string, opts OpenOptions) (*Viewer, error) {
	if opts.Surface == nil {
		return nil, errors.New("open viewer: surface is required")
	}

	policy, err := swipe.ParsePolicy(a.Config.Swipes.Policy)
	if err != nil {
		return nil, fmt.Errorf("open viewer: %w", err)
	}

	meta, msgs, err := transcript.Load(path)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithTranscript(ctx, path)
	store := transcript.NewMemory(meta, msgs)
	macros := render.FromStore(store, a.Config.UserName)

	formatter := opts.Formatter
	if formatter == nil {
		formatter = render.NewMarkdown(macros, a.Config.TUI.WordWrap, styles.GlamourStyle())
	}

	translations := translate.New(a.translationBackend(), store, macros, translate.Options{
		Cache:    a.Config.Translation.Cache,
		CacheTTL: a.Config.Translation.CacheTTL,
	}, logging.Component("translate"))

	// a nil *translate.Store must not become a non-nil interface
	var translator swipe.Translator
	if translations.Available() {
		translator = translations
	}

	registry := swipe.NewRegistry(store, policy)
	reconciler := swipe.NewReconciler(store, translator, formatter, opts.Surface, logging.Component("reconciler"))
	reconciler.UseMacros(macros)
	controller := swipe.NewController(ctx, swipe.Deps{
		Store:      store,
		Registry:   registry,
		Reconciler: reconciler,
		Translator: translator,
		Macros:     macros,
		Bus:        a.Bus,
		Logger:     logging.Component("swipe"),
	})

	v := &Viewer{
		Path:         path,
		Store:        store,
		Registry:     registry,
		Reconciler:   reconciler,
		Controller:   controller,
		Formatter:    formatter,
		Translations: translations,
		bus:          a.Bus,
		logger:       logging.Component("viewer"),
	}

	v.Scanner = scanner.New(store, a.Bus, controller, scanner.ReloaderFunc(v.reload), scanner.Options{
		Debounce:      a.Config.Scanner.Debounce,
		CloseOnChange: a.Config.Swipes.CloseOnChange,
		OnScan:        opts.OnScan,
	}, logging.Component("scanner"))

	if opts.Watch {
		v.watcher, err = transcript.NewWatcher(path, logging.Component("watcher"))
		if err != nil {
			return nil, fmt.Errorf("watch transcript: %w", err)
		}
	}

	return v, nil
}

// Start attaches the initial affordances and begins reacting to transcript
// changes. It returns once background work is running.
func (v *Viewer) Start(ctx context.Context) {
	ctx, v.cancel = context.WithCancel(ctx)

	v.Scanner.Start(ctx)
	result := v.Scanner.ScanNow()
	v.logger.Debug().Ctx(logging.WithTranscript(ctx, v.Path)).
		Int("messages", result.Total).
		Int("attached", len(result.Attached)).
		Msg("initial scan")

	if v.watcher != nil && v.bus != nil {
		events := v.watcher.Watch(ctx)
		go func() {
			for ev := range events {
				v.bus.PublishTranscriptChanged(eventbus.TranscriptChangedPayload{Path: ev.Path})
			}
		}()
	}

	if ttl := v.Translations.CacheTTL(); ttl > 0 {
		go sweep.Start(ctx, ttl, v.Translations)
	}
}

// Close stops background work and waits for in-flight renders.
func (v *Viewer) Close() error {
	if v.cancel != nil {
		v.cancel()
	}

	var err error
	if v.watcher != nil {
		err = v.watcher.Close()
	}
	v.Reconciler.Wait()
	return err
}

// reload re-reads the transcript. Unlocked messages keep their in-memory
// selection; sessions whose message no longer exists are closed.
func (v *Viewer) reload(ctx context.Context) error {
	meta, msgs, err := transcript.Load(v.Path)
	if err != nil {
		return err
	}

	n, replaced := v.Store.Reload(meta, msgs, v.Controller.IsOpen)

	stale := replaced
	for _, id := range v.Registry.IDs() {
		if id >= n {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if v.Controller.Discard(id) {
			v.logger.Debug().Ctx(logging.WithMessageID(ctx, id)).Msg("dropped session of removed or replaced message")
		}
	}

	return nil
}
