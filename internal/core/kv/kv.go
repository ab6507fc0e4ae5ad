// Package kv defines the persistent key-value store that backs translations.
package kv

import (
	"context"
	"time"
)

// KV stores JSON values under string keys. Get on a missing or expired key
// returns an error wrapping sql.ErrNoRows.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
}
