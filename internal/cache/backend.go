package cache

import (
	"context"
	"time"
)

// Backend is the raw key-value store behind the Facade.
// Get reports a miss with ok=false and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Name() string
}
