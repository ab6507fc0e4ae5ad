package translate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hay-kot/swipeview/internal/core/kv"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/data/db"
	"github.com/hay-kot/swipeview/internal/data/stores"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memKV is a map-backed kv.KV that counts Get calls and records TTLs.
type memKV struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
	ttls map[string]time.Duration
	gets atomic.Int64
	fail error
}

func newMemKV() *memKV {
	return &memKV{data: map[string]json.RawMessage{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string, dest any) error {
	m.gets.Add(1)
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("kv get %q: %w", key, sql.ErrNoRows)
	}
	return json.Unmarshal(raw, dest)
}

func (m *memKV) Set(ctx context.Context, key string, value any) error {
	return m.SetTTL(ctx, key, value, 0)
}

func (m *memKV) SetTTL(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.ttls[key] = ttl
	m.mu.Unlock()
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	delete(m.ttls, key)
	m.mu.Unlock()
	return nil
}

func (m *memKV) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func testTranscript() *transcript.Memory {
	return transcript.NewMemory(
		transcript.Meta{UserName: "Ann", CharacterName: "Sera"},
		[]transcript.Message{
			{Content: "Hi {{user}}", Swipes: []string{"Hi {{user}}", "Hello <USER>, I am {{char}}"}},
			{Content: "plain"},
		},
	)
}

func newStore(backend kv.KV, opts Options) *Store {
	messages := testTranscript()
	return New(backend, messages, render.FromStore(messages, ""), opts, zerolog.Nop())
}

func TestLookup_SubstitutesPlaceholders(t *testing.T) {
	ctx := context.Background()
	backend := newMemKV()
	s := newStore(backend, Options{})

	require.NoError(t, s.Put(ctx, "Hi Ann", "Hallo Ann", 0))
	require.NoError(t, s.Put(ctx, "Hello Ann, I am Sera", "Hallo Ann, ich bin Sera", 0))

	got, ok := s.Lookup(ctx, 0, 0)
	require.True(t, ok)
	assert.Equal(t, "Hallo Ann", got)

	got, ok = s.Lookup(ctx, 0, 1)
	require.True(t, ok)
	assert.Equal(t, "Hallo Ann, ich bin Sera", got)
}

func TestLookup_MissesAreNotErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		store *Store
		id    int
		swipe int
	}{
		{"no backend", newStore(nil, Options{}), 0, 0},
		{"missing key", newStore(newMemKV(), Options{}), 0, 0},
		{"message out of range", newStore(newMemKV(), Options{}), 9, 0},
		{"swipe out of range", newStore(newMemKV(), Options{}), 0, 5},
		{"message without swipes", newStore(newMemKV(), Options{}), 1, 0},
		{"no transcript", New(newMemKV(), nil, nil, Options{}, zerolog.Nop()), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.store.Lookup(ctx, tt.id, tt.swipe)
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestLookup_BackendFailure(t *testing.T) {
	backend := newMemKV()
	backend.fail = errors.New("database is locked")
	s := newStore(backend, Options{Cache: true})

	_, ok := s.Lookup(context.Background(), 0, 0)
	assert.False(t, ok)

	// failures are not cached
	backend.fail = nil
	require.NoError(t, s.Put(context.Background(), "Hi Ann", "Hallo", 0))
	got, ok := s.Lookup(context.Background(), 0, 0)
	assert.True(t, ok)
	assert.Equal(t, "Hallo", got)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	backend := newMemKV()
	s := newStore(backend, Options{Cache: true, CacheTTL: time.Minute})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, backend.Set(ctx, Namespace+":Hi Ann", "Hallo"))

	for range 3 {
		got, ok := s.Lookup(ctx, 0, 0)
		require.True(t, ok)
		assert.Equal(t, "Hallo", got)
	}
	assert.Equal(t, int64(1), backend.gets.Load())

	// misses are cached too
	for range 2 {
		_, ok := s.Lookup(ctx, 0, 1)
		assert.False(t, ok)
	}
	assert.Equal(t, int64(2), backend.gets.Load())

	// Put invalidates
	require.NoError(t, s.Put(ctx, "Hello Ann, I am Sera", "Hallo", 0))
	_, ok := s.Lookup(ctx, 0, 1)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	require.NoError(t, s.SweepExpired(ctx))
	assert.Zero(t, s.cache.Len())
}

func TestCache_ConcurrentLookups(t *testing.T) {
	ctx := context.Background()
	backend := newMemKV()
	s := newStore(backend, Options{Cache: true})
	require.NoError(t, s.Put(ctx, "Hi Ann", "Hallo", 0))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok := s.Lookup(ctx, 0, 0)
			assert.True(t, ok)
			assert.Equal(t, "Hallo", got)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, backend.gets.Load(), int64(20))
}

func TestManagement_Unavailable(t *testing.T) {
	ctx := context.Background()
	s := newStore(nil, Options{})

	assert.False(t, s.Available())
	require.ErrorIs(t, s.Put(ctx, "a", "b", 0), ErrUnavailable)
	require.ErrorIs(t, s.Delete(ctx, "a"), ErrUnavailable)
	_, err := s.List(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestImportAndList_SQLite(t *testing.T) {
	ctx := context.Background()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	backend := stores.NewKVStore(database)
	require.NoError(t, backend.Set(ctx, "other:key", "ignored"))

	s := New(backend, nil, nil, Options{}, zerolog.Nop())

	n, err := s.Import(ctx, map[string]string{
		"Hello":   "Hallo",
		"Goodbye": "Tschüss",
		"":        "skipped",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Source: "Goodbye", Translated: "Tschüss"},
		{Source: "Hello", Translated: "Hallo"},
	}, entries)

	got, ok := s.Text(ctx, "Hello")
	assert.True(t, ok)
	assert.Equal(t, "Hallo", got)

	require.NoError(t, s.Delete(ctx, "Hello"))
	_, ok = s.Text(ctx, "Hello")
	assert.False(t, ok)
}

func TestPut_TTLUsesExpiringWrite(t *testing.T) {
	ctx := context.Background()
	backend := newMemKV()
	s := newStore(backend, Options{})

	require.NoError(t, s.Put(ctx, "kept", "bleibt", 0))
	require.NoError(t, s.Put(ctx, "temp", "kurz", time.Hour))

	n, err := s.Import(ctx, map[string]string{"a": "A", "b": "B"}, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, time.Duration(0), backend.ttls[Namespace+":kept"])
	assert.Equal(t, time.Hour, backend.ttls[Namespace+":temp"])
	assert.Equal(t, 2*time.Hour, backend.ttls[Namespace+":a"])
	assert.Equal(t, 2*time.Hour, backend.ttls[Namespace+":b"])
}

func TestPut_ExpiredTranslationIsSwept(t *testing.T) {
	ctx := context.Background()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	backend := stores.NewKVStore(database)
	s := New(backend, nil, nil, Options{}, zerolog.Nop())

	require.NoError(t, s.Put(ctx, "Hello", "Hallo", 0))
	require.NoError(t, s.Put(ctx, "Soon", "Bald", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, backend.SweepExpired(ctx))

	var count int
	err = database.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Source: "Hello", Translated: "Hallo"}}, entries)

	_, ok := s.Text(ctx, "Soon")
	assert.False(t, ok)
}
