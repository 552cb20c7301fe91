package channel

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"go-report-pipeline/internal/board"
	"go-report-pipeline/internal/core"
	"go-report-pipeline/internal/eventbus"
)

// stamper wraps payloads into events with a fresh ID and a running
// sequence number per channel.
type stamper struct {
	source string
	clock  core.Clock
	seq    atomic.Uint64
}

func (s *stamper) stamp(payload any) core.Event {
	return core.Event{
		ID:        uuid.NewString(),
		Source:    s.source,
		Seq:       s.seq.Add(1),
		Timestamp: s.clock.Now(),
		Payload:   payload,
	}
}

// Bus publishes each payload as an event on a bus topic.
type Bus struct {
	ctx    context.Context
	bus    eventbus.Bus
	topic  string
	logger *log.Logger
	stamper
}

// NewBus publishes to topic, tagging events with source. ctx bounds every
// publish made by the channel.
func NewBus(ctx context.Context, bus eventbus.Bus, topic, source string, logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{
		ctx:     ctx,
		bus:     bus,
		topic:   topic,
		logger:  logger,
		stamper: stamper{source: source, clock: core.RealClock{}},
	}
}

// Send publishes payload. Nil payloads and publish failures are not
// delivered.
func (c *Bus) Send(payload any) bool {
	if payload == nil {
		return false
	}
	ev := c.stamp(payload)
	if err := c.bus.Publish(c.ctx, c.topic, ev); err != nil {
		c.logger.Println("channel: bus", err)
		return false
	}
	return true
}

// Board records the latest payload under a fixed key.
type Board struct {
	ctx    context.Context
	store  board.Store
	key    string
	ttl    time.Duration
	logger *log.Logger
	stamper

	version atomic.Int64
}

// NewBoard writes to key on store; a positive ttl lets stale reports expire.
func NewBoard(ctx context.Context, store board.Store, key string, ttl time.Duration, logger *log.Logger) *Board {
	if logger == nil {
		logger = log.Default()
	}
	return &Board{
		ctx:     ctx,
		store:   store,
		key:     key,
		ttl:     ttl,
		logger:  logger,
		stamper: stamper{source: key, clock: core.RealClock{}},
	}
}

func (c *Board) Send(payload any) bool {
	if payload == nil {
		return false
	}
	ver, err := c.store.Put(c.ctx, c.key, c.stamp(payload), c.ttl)
	if err != nil {
		c.logger.Println("channel: board", err)
		return false
	}
	c.version.Store(ver)
	return true
}

// Version returns the board version written by the last successful send.
func (c *Board) Version() int64 { return c.version.Load() }

var (
	_ Channel = (*Bus)(nil)
	_ Channel = (*Board)(nil)
)
