// Package cache holds short-lived copies of expensive ledger aggregates.
//
// Entries live under a namespace whose version is bumped on every write to the
// underlying data, so invalidation never needs to enumerate keys.
package cache

import (
	"context"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Version(ctx context.Context, namespace string) (int64, error)
	Bump(ctx context.Context, namespace string) error
}
