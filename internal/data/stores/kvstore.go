package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hay-kot/swipeview/internal/core/kv"
	"github.com/hay-kot/swipeview/internal/data/db"
)

const (
	kvGetQuery = `SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?`
	kvSetQuery = `INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`
	kvDeleteQuery       = `DELETE FROM kv_store WHERE key = ?`
	kvListPrefixQuery   = `SELECT key FROM kv_store WHERE substr(key, 1, length(?)) = ? AND (expires_at IS NULL OR expires_at >= ?) ORDER BY key`
	kvSweepExpiredQuery = `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?`
)

// KVStore implements kv.KV using SQLite.
type KVStore struct {
	db *db.DB
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db}
}

type kvRow struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

// Get retrieves and deserializes a value by key.
// Returns an error wrapping sql.ErrNoRows if the key does not exist.
// Expired entries are lazily deleted and treated as missing.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	row, err := s.get(ctx, key)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if err := json.Unmarshal(row.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}

	return nil
}

// Set stores a value with no expiry.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

// SetTTL stores a value that expires after the given duration.
func (s *KVStore) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixNano()
	return s.set(ctx, key, value, sql.NullInt64{Int64: expiresAt, Valid: true})
}

// Delete removes a key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Conn().ExecContext(ctx, kvDeleteQuery, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// ListPrefix returns all non-expired keys starting with prefix in sorted order.
func (s *KVStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.queryKeys(ctx, kvListPrefixQuery, prefix, prefix, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("kv list prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// SweepExpired deletes all entries whose TTL has passed.
func (s *KVStore) SweepExpired(ctx context.Context) error {
	if _, err := s.db.Conn().ExecContext(ctx, kvSweepExpiredQuery, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("kv sweep expired: %w", err)
	}
	return nil
}

// get loads a row, lazily deleting it when expired.
func (s *KVStore) get(ctx context.Context, key string) (kvRow, error) {
	var row kvRow
	err := s.db.Conn().QueryRowContext(ctx, kvGetQuery, key).
		Scan(&row.Key, &row.Value, &row.ExpiresAt, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return kvRow{}, err
	}

	if isExpired(row) {
		_, _ = s.db.Conn().ExecContext(ctx, kvDeleteQuery, key)
		return kvRow{}, sql.ErrNoRows
	}

	return row, nil
}

func (s *KVStore) set(ctx context.Context, key string, value any, expiresAt sql.NullInt64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := time.Now().UnixNano()
	if _, err := s.db.Conn().ExecContext(ctx, kvSetQuery, key, data, expiresAt, now, now); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}

	return nil
}

func (s *KVStore) queryKeys(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func isExpired(row kvRow) bool {
	return row.ExpiresAt.Valid && row.ExpiresAt.Int64 < time.Now().UnixNano()
}
