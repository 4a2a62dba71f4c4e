// Package cache provides the TTL'd key-value store behind the community
// validation cache. The in-memory store covers a single instance; the Redis
// store is for deployments running more than one back-office replica.
package cache

import (
	"context"
	"time"
)

// Store is a small TTL cache abstraction. Get reports a miss (not an error)
// for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
