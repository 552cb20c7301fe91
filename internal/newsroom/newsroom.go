// Package newsroom runs the desks described by a configuration and routes
// incoming signals to them.
package newsroom

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"go-report-pipeline/internal/config"
	"go-report-pipeline/internal/core"
)

var (
	// ErrUnknownTarget is returned when a signal names no open desk or beat.
	ErrUnknownTarget = errors.New("newsroom: unknown target")
	// ErrDeskExists is returned when opening a desk whose name is taken.
	ErrDeskExists = errors.New("newsroom: desk already open")
)

// DeskFactory creates desks from configuration.
type DeskFactory interface {
	Create(ctx context.Context, cfg config.Desk) (*Desk, error)
}

// Newsroom owns a set of desks. Signals are fed one at a time so every
// beat is driven from a single goroutine.
type Newsroom struct {
	id      string
	cfg     config.Config
	factory DeskFactory
	logger  *log.Logger

	mu       sync.RWMutex
	registry map[string]*Desk
	order    []string

	feedMu sync.Mutex
}

// New returns a newsroom for cfg. A nil factory builds desks with a
// default Builder.
func New(id string, cfg config.Config, factory DeskFactory, logger *log.Logger) *Newsroom {
	if logger == nil {
		logger = log.Default()
	}
	if factory == nil {
		factory = Builder{Logger: logger}
	}
	return &Newsroom{
		id:       id,
		cfg:      cfg,
		factory:  factory,
		logger:   logger,
		registry: make(map[string]*Desk),
	}
}

// ID returns the newsroom identifier.
func (n *Newsroom) ID() string { return n.id }

// Start opens every configured desk. If one fails, the desks opened so
// far are closed again.
func (n *Newsroom) Start(ctx context.Context) error {
	for _, dc := range n.cfg.Desks {
		if err := n.OpenDesk(ctx, dc); err != nil {
			_ = n.Stop(ctx)
			return err
		}
	}
	return nil
}

// Stop closes every desk.
func (n *Newsroom) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	var errs []error
	for _, name := range n.order {
		if err := n.registry[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("newsroom: close %s: %w", name, err))
		}
	}
	n.registry = make(map[string]*Desk)
	n.order = nil
	return errors.Join(errs...)
}

// OpenDesk builds and registers one desk.
func (n *Newsroom) OpenDesk(ctx context.Context, cfg config.Desk) error {
	n.mu.RLock()
	_, taken := n.registry[cfg.Name]
	n.mu.RUnlock()
	if taken {
		return fmt.Errorf("%w: %s", ErrDeskExists, cfg.Name)
	}
	d, err := n.factory.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create desk: %w", err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, taken := n.registry[cfg.Name]; taken {
		_ = d.Close()
		return fmt.Errorf("%w: %s", ErrDeskExists, cfg.Name)
	}
	n.registry[cfg.Name] = d
	n.order = append(n.order, cfg.Name)
	n.logger.Printf("newsroom: opened desk %s with %d beats", cfg.Name, len(d.beats))
	return nil
}

// CloseDesk closes and forgets the named desk.
func (n *Newsroom) CloseDesk(name string) error {
	n.mu.Lock()
	d, ok := n.registry[name]
	if ok {
		delete(n.registry, name)
		for i, v := range n.order {
			if v == name {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return d.Close()
}

// DeskNames returns the open desks in the order they were opened.
func (n *Newsroom) DeskNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.order...)
}

// Desk returns the named desk.
func (n *Newsroom) Desk(name string) (*Desk, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	d, ok := n.registry[name]
	return d, ok
}

// Feed routes value to target and returns how many beats fired. An empty
// target reaches every desk, "desk" every beat of one desk and
// "desk.beat" a single beat.
func (n *Newsroom) Feed(target string, value float64) (int, error) {
	n.feedMu.Lock()
	defer n.feedMu.Unlock()

	if target == "" {
		fired := 0
		for _, name := range n.DeskNames() {
			if d, ok := n.Desk(name); ok {
				fired += d.Feed(value)
			}
		}
		return fired, nil
	}

	deskName, beatName, single := strings.Cut(target, ".")
	d, ok := n.Desk(deskName)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	if !single {
		return d.Feed(value), nil
	}
	b, ok := d.Beat(beatName)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	if b.Process(value) {
		return 1, nil
	}
	return 0, nil
}

// HandleEvent feeds a bus event. The event source names the target and
// the payload carries the signal value.
func (n *Newsroom) HandleEvent(ev core.Event) error {
	value, err := SignalValue(ev.Payload)
	if err != nil {
		return fmt.Errorf("newsroom: event %s: %w", ev.ID, err)
	}
	_, err = n.Feed(ev.Source, value)
	return err
}

var _ core.Service = (*Newsroom)(nil)
