package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"go-report-pipeline/internal/core"
)

// TopicPrefix namespaces every report topic on the Redis server.
const TopicPrefix = "reports:"

// RedisBus implements Bus on Redis pub/sub. Events travel as JSON.
type RedisBus struct {
	mu            sync.Mutex
	client        *redis.Client
	options       *redis.Options
	subscriptions map[string]*subscription
	logger        *log.Logger
}

type subscription struct {
	ps     *redis.PubSub
	cancel context.CancelFunc
}

func (s *subscription) close() error {
	s.cancel()
	return s.ps.Close()
}

// NewRedisBus connects lazily using opts.
func NewRedisBus(opts *redis.Options, logger *log.Logger) *RedisBus {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisBus{
		client:        redis.NewClient(opts),
		options:       opts,
		subscriptions: make(map[string]*subscription),
		logger:        logger,
	}
}

// conn returns a live client, replacing it once if the server stopped
// answering.
func (b *RedisBus) conn(ctx context.Context) *redis.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.client.Ping(ctx).Err(); err != nil {
		b.logger.Println("eventbus: reconnecting to redis", err)
		_ = b.client.Close()
		b.client = redis.NewClient(b.options)
	}
	return b.client
}

// Publish sends ev on topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventbus: encode event %s: %w", ev.ID, err)
	}
	if err := b.conn(ctx).Publish(ctx, TopicPrefix+topic, data).Err(); err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe streams events from topic until ctx ends or Unsubscribe is
// called. The subscription is confirmed before Subscribe returns, so no
// event published afterwards is missed.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (<-chan core.Event, error) {
	ps := b.conn(ctx).Subscribe(ctx, TopicPrefix+topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("eventbus: subscribe %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	if old, ok := b.subscriptions[topic]; ok {
		_ = old.close()
	}
	b.subscriptions[topic] = &subscription{ps: ps, cancel: cancel}
	b.mu.Unlock()

	ch := make(chan core.Event)
	go b.pump(subCtx, ps, ch)
	return ch, nil
}

func (b *RedisBus) pump(ctx context.Context, ps *redis.PubSub, out chan<- core.Event) {
	defer close(out)
	for {
		msg, err := ps.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return
			}
			b.logger.Println("eventbus: receive", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		var ev core.Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.logger.Println("eventbus: decode", err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Unsubscribe stops listening on topic. Unknown topics are ignored.
func (b *RedisBus) Unsubscribe(ctx context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subscriptions[topic]
	if !ok {
		return nil
	}
	delete(b.subscriptions, topic)
	return sub.close()
}

// Close ends all subscriptions and the client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscriptions {
		_ = sub.close()
	}
	b.subscriptions = make(map[string]*subscription)
	return b.client.Close()
}

var _ Bus = (*RedisBus)(nil)
