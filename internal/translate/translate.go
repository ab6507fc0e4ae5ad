// Package translate resolves stored translations for message alternatives.
//
// Translations live in the persistent KV store under the "translation"
// namespace, keyed by the source text after placeholder substitution. Lookups
// are best-effort: every failure is reported as a miss.
package translate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hay-kot/swipeview/internal/core/kv"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	pkgkv "github.com/hay-kot/swipeview/pkg/kv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Namespace is the KV key prefix of translation entries.
const Namespace = "translation"

// DefaultCacheTTL bounds how long a cached hit or miss is trusted.
const DefaultCacheTTL = 5 * time.Minute

// ErrUnavailable is returned by management operations when no backing store
// is configured.
var ErrUnavailable = errors.New("translation store unavailable")

// Options configures a Store.
type Options struct {
	Cache    bool
	CacheTTL time.Duration
}

// Entry is one stored translation.
type Entry struct {
	Source     string `json:"source"`
	Translated string `json:"translated"`
}

type cached struct {
	text    string
	found   bool
	expires time.Time
}

// Store looks up and manages translations. The zero backend is valid and
// answers every lookup with a miss.
type Store struct {
	transcript transcript.Store
	macros     render.MacroSource
	entries    *kv.TypedKV[string]
	logger     zerolog.Logger

	cache *pkgkv.Store[string, cached]
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

// New creates a translation store over backend. backend may be nil when the
// database is unavailable; transcript may be nil for management-only use.
func New(backend kv.KV, messages transcript.Store, macros render.MacroSource, opts Options, logger zerolog.Logger) *Store {
	s := &Store{
		transcript: messages,
		macros:     macros,
		logger:     logger,
		now:        time.Now,
	}
	if backend != nil {
		s.entries = kv.Scoped[string](backend, Namespace)
	}
	if s.macros == nil {
		s.macros = render.Static(render.Macros{})
	}
	if opts.Cache {
		s.cache = pkgkv.New[string, cached]()
		s.ttl = opts.CacheTTL
		if s.ttl <= 0 {
			s.ttl = DefaultCacheTTL
		}
	}
	return s
}

// Available reports whether a backing store is configured.
func (s *Store) Available() bool {
	return s.entries != nil
}

// CacheTTL returns how long lookups are cached, or zero when caching is off.
func (s *Store) CacheTTL() time.Duration {
	return s.ttl
}

// Lookup returns the translation of alternative swipeIndex of message id.
func (s *Store) Lookup(ctx context.Context, id, swipeIndex int) (string, bool) {
	if s.entries == nil || s.transcript == nil {
		return "", false
	}

	msg, err := s.transcript.Message(id)
	if err != nil {
		s.logger.Debug().Err(err).Int("message_id", id).Msg("translation lookup: message")
		return "", false
	}

	raw, err := msg.Alternative(swipeIndex)
	if err != nil {
		s.logger.Debug().Err(err).Int("message_id", id).Int("swipe", swipeIndex).Msg("translation lookup: swipe")
		return "", false
	}

	return s.Text(ctx, s.macros().Apply(raw))
}

// Text returns the translation stored for source, which must already have
// placeholders substituted.
func (s *Store) Text(ctx context.Context, source string) (string, bool) {
	if s.entries == nil || source == "" {
		return "", false
	}

	if s.cache != nil {
		if c, ok := s.cache.Get(source); ok && s.now().Before(c.expires) {
			return c.text, c.found
		}
	}

	v, _, _ := s.group.Do(source, func() (any, error) {
		text, err := s.entries.Get(ctx, source)
		found := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug().Err(err).Msg("translation lookup failed")
		}
		if s.cache != nil && (found || errors.Is(err, sql.ErrNoRows)) {
			s.cache.Set(source, cached{text: text, found: found, expires: s.now().Add(s.ttl)})
		}
		return cached{text: text, found: found}, nil
	})

	c := v.(cached)
	return c.text, c.found
}

// Put stores a translation for source. A positive ttl makes the entry expire;
// expired entries read as misses and are removed by the store's sweep.
func (s *Store) Put(ctx context.Context, source, translated string, ttl time.Duration) error {
	if s.entries == nil {
		return ErrUnavailable
	}
	if source == "" {
		return fmt.Errorf("source text is empty")
	}

	var err error
	if ttl > 0 {
		err = s.entries.SetTTL(ctx, source, translated, ttl)
	} else {
		err = s.entries.Set(ctx, source, translated)
	}
	if err != nil {
		return fmt.Errorf("store translation: %w", err)
	}
	if s.cache != nil {
		s.cache.Delete(source)
	}
	return nil
}

// Delete removes the translation for source.
func (s *Store) Delete(ctx context.Context, source string) error {
	if s.entries == nil {
		return ErrUnavailable
	}
	if s.cache != nil {
		s.cache.Delete(source)
	}
	return s.entries.Delete(ctx, source)
}

// Import stores every entry of m with the given ttl and returns how many were
// written.
func (s *Store) Import(ctx context.Context, m map[string]string, ttl time.Duration) (int, error) {
	n := 0
	for _, source := range slices.Sorted(maps.Keys(m)) {
		if source == "" {
			continue
		}
		if err := s.Put(ctx, source, m[source], ttl); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// List returns all stored translations ordered by source text.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if s.entries == nil {
		return nil, ErrUnavailable
	}

	keys, err := s.entries.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	slices.Sort(keys)

	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		text, err := s.entries.Get(ctx, key)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("get translation: %w", err)
		}
		out = append(out, Entry{Source: key, Translated: text})
	}
	return out, nil
}

// SweepExpired drops expired cache entries.
func (s *Store) SweepExpired(_ context.Context) error {
	if s.cache == nil {
		return nil
	}
	now := s.now()
	n := s.cache.DeleteFunc(func(_ string, c cached) bool {
		return !now.Before(c.expires)
	})
	if n > 0 {
		s.logger.Debug().Int("count", n).Msg("swept translation cache")
	}
	return nil
}
