// Package keyvalue is a small expiring key/value store, kept in a local
// hashmap in self-contained mode or in Redis otherwise.
package keyvalue

import (
	"context"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expires time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, key string) error
}
