package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"go-report-pipeline/internal/core"
)

const (
	keyPrefix    = "board:"
	notifyPrefix = "board:update:"
)

// ErrNotFound is returned by Get for keys that hold no report.
var ErrNotFound = errors.New("board: key not found")

// RedisStore keeps each key in a Redis hash with "event" and "version"
// fields and publishes an Update after every write.
type RedisStore struct {
	mu      sync.Mutex
	client  *redis.Client
	options *redis.Options
	logger  *log.Logger
}

// NewRedisStore returns a store using opts.
func NewRedisStore(opts *redis.Options, logger *log.Logger) *RedisStore {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisStore{client: redis.NewClient(opts), options: opts, logger: logger}
}

func (s *RedisStore) conn(ctx context.Context) *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.Println("board: reconnecting to redis", err)
		_ = s.client.Close()
		s.client = redis.NewClient(s.options)
	}
	return s.client
}

// Put stores ev under key and returns its new version. A positive ttl
// expires the key.
func (s *RedisStore) Put(ctx context.Context, key string, ev core.Event, ttl time.Duration) (int64, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("board: encode %s: %w", key, err)
	}
	client := s.conn(ctx)
	hkey := keyPrefix + key

	var ver int64
	err = client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, hkey, "version").Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		ver = cur + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hkey, "event", data, "version", ver)
			if ttl > 0 {
				pipe.Expire(ctx, hkey, ttl)
			}
			return nil
		})
		return err
	}, hkey)
	if err != nil {
		return 0, fmt.Errorf("board: put %s: %w", key, err)
	}

	upd, _ := json.Marshal(Update{Key: key, Version: ver, Event: ev})
	if err := client.Publish(ctx, notifyPrefix+key, upd).Err(); err != nil {
		s.logger.Println("board: notify", key, err)
	}
	return ver, nil
}

// Get returns the latest event and version for key.
func (s *RedisStore) Get(ctx context.Context, key string) (core.Event, int64, error) {
	res, err := s.conn(ctx).HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return core.Event{}, 0, fmt.Errorf("board: get %s: %w", key, err)
	}
	if len(res) == 0 {
		return core.Event{}, 0, ErrNotFound
	}
	var ev core.Event
	if err := json.Unmarshal([]byte(res["event"]), &ev); err != nil {
		return core.Event{}, 0, fmt.Errorf("board: decode %s: %w", key, err)
	}
	ver, err := strconv.ParseInt(res["version"], 10, 64)
	if err != nil {
		return core.Event{}, 0, fmt.Errorf("board: version of %s: %w", key, err)
	}
	return ev, ver, nil
}

// Watch streams updates for keys matching a glob pattern until ctx ends.
func (s *RedisStore) Watch(ctx context.Context, pattern string) (<-chan Update, error) {
	ps := s.conn(ctx).PSubscribe(ctx, notifyPrefix+pattern)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("board: watch %s: %w", pattern, err)
	}
	ch := make(chan Update)
	go func() {
		defer close(ch)
		defer ps.Close()
		for {
			msg, err := ps.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
					return
				}
				s.logger.Println("board: watch", err)
				continue
			}
			var upd Update
			if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
				continue
			}
			select {
			case ch <- upd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.conn(ctx).Del(ctx, keyPrefix+key).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
