package eventbus

import (
	"context"

	"go-report-pipeline/internal/core"
)

// Bus carries published reports between processes.
type Bus interface {
	Publish(ctx context.Context, topic string, ev core.Event) error
	Subscribe(ctx context.Context, topic string) (<-chan core.Event, error)
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}
