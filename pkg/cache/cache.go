package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service is the storage contract shared by the strategy state store and
// the API response cache. Values are JSON-encoded at rest so the memory
// and Redis backends stay interchangeable. A zero expiration means the
// entry never expires.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
