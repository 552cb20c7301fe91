// Package board keeps the latest report for each key, with a version that
// grows on every write. It is the backing store of the board channel.
package board

import (
	"context"
	"time"

	"go-report-pipeline/internal/core"
)

// Update announces a new version of a key.
type Update struct {
	Key     string     `json:"key"`
	Version int64      `json:"version"`
	Event   core.Event `json:"event"`
}

// Store holds the latest event per key.
type Store interface {
	Put(ctx context.Context, key string, ev core.Event, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (core.Event, int64, error)
	Watch(ctx context.Context, pattern string) (<-chan Update, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
