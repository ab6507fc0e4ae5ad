// Package scanner keeps the lock affordance attached to every eligible
// message and reacts to transcript change notifications.
package scanner

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/swipe"
	"github.com/hay-kot/swipeview/pkg/kv"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period after the last change notification
// before a scan runs.
const DefaultDebounce = 100 * time.Millisecond

// Reloader refreshes the transcript from its source.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) error

// Reload calls f.
func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// SessionCloser closes every open session.
type SessionCloser interface {
	CloseAll() []swipe.Session
}

// Result summarizes one scan.
type Result struct {
	Attached []int // ids that received the affordance in this scan
	Total    int   // messages in the transcript
	Closed   int   // sessions closed by the close-on-change policy
}

// Options configures a Scanner.
type Options struct {
	Debounce time.Duration
	// CloseOnChange closes all open sessions whenever the transcript changes.
	// Sessions persist across changes by default.
	CloseOnChange bool
	// OnScan is called after every scan.
	OnScan func(Result)
}

// Scanner attaches affordances exactly once per message.
type Scanner struct {
	store    transcript.Store
	bus      *eventbus.EventBus
	sessions SessionCloser
	reloader Reloader
	opts     Options
	logger   zerolog.Logger

	attached *kv.Store[int, time.Time]

	scanMu sync.Mutex

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a scanner. bus, sessions and reloader may be nil.
func New(store transcript.Store, bus *eventbus.EventBus, sessions SessionCloser, reloader Reloader, opts Options, logger zerolog.Logger) *Scanner {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Scanner{
		store:    store,
		bus:      bus,
		sessions: sessions,
		reloader: reloader,
		opts:     opts,
		logger:   logger,
		attached: kv.New[int, time.Time](),
	}
}

// Start subscribes to transcript change notifications. Each notification
// restarts the debounce timer; the scan runs once the notifications stop.
// Pending scans are cancelled when ctx ends.
func (s *Scanner) Start(ctx context.Context) {
	if s.bus == nil {
		return
	}

	s.bus.SubscribeTranscriptChanged(func(p eventbus.TranscriptChangedPayload) {
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug().Str("path", p.Path).Msg("transcript changed")
		s.schedule(ctx)
	})

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.mu.Unlock()
	}()
}

// ScanNow attaches affordances without reloading, for the initial attach.
func (s *Scanner) ScanNow() Result {
	return s.scan(context.Background(), false)
}

// HasAffordance reports whether id carries the lock affordance.
func (s *Scanner) HasAffordance(id int) bool {
	_, ok := s.attached.Get(id)
	return ok
}

func (s *Scanner) schedule(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		s.scan(ctx, true)
	})
}

func (s *Scanner) scan(ctx context.Context, changed bool) Result {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	var res Result

	if changed {
		if s.opts.CloseOnChange && s.sessions != nil {
			res.Closed = len(s.sessions.CloseAll())
		}
		if s.reloader != nil {
			if err := s.reloader.Reload(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("transcript reload failed")
			}
		}
	}

	res.Total = s.store.Len()

	// messages removed by a reload lose their affordance
	s.attached.DeleteFunc(func(id int, _ time.Time) bool { return id >= res.Total })

	now := time.Now()
	for id := range res.Total {
		msg, err := s.store.Message(id)
		if err != nil || !eligible(msg) {
			continue
		}
		if s.attached.SetIfAbsent(id, now) {
			res.Attached = append(res.Attached, id)
		}
	}

	if len(res.Attached) > 0 {
		s.logger.Debug().Ints("ids", res.Attached).Msg("affordances attached")
		if s.bus != nil {
			s.bus.PublishAffordanceAttached(eventbus.AffordanceAttachedPayload{
				MessageIDs: slices.Clone(res.Attached),
			})
		}
	}

	if s.opts.OnScan != nil {
		s.opts.OnScan(res)
	}
	return res
}

func eligible(msg transcript.Message) bool {
	return !msg.IsSystem
}
