// Package editor collects the output of many beat reporters and forwards
// it, optionally revised, to a single channel.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"go-report-pipeline/internal/channel"
)

// Beat is the editor's view of a beat reporter, independent of the signal
// type the beat consumes.
type Beat interface {
	AssignBeat(desk channel.Desk, id int)
	Reassign(id int)
	Unassign()
	Message() any
	Ack()
}

// ErrInvalidID is returned when a requested assignment ID clashes with an
// attached beat or does not fit the roster.
var ErrInvalidID = errors.New("editor: invalid assignment id")

// Stats counts what happened to incoming payloads.
type Stats struct {
	Beats       int
	Received    uint64
	Forwarded   uint64
	Ignored     uint64
	Undelivered uint64
}

type slot struct {
	beat    Beat
	revisor Revisor
}

// Editor owns an ordered set of beats and one terminal channel. All
// mutation and forwarding is serialized behind one lock.
type Editor struct {
	mu      sync.Mutex
	channel channel.Channel
	roster  Roster
	logger  *log.Logger

	slots []slot
	ids   []int
	stats Stats
}

// Option configures an Editor.
type Option func(*Editor)

// WithRoster replaces the default DenseRoster.
func WithRoster(r Roster) Option {
	return func(e *Editor) { e.roster = r }
}

// New returns an editor forwarding to ch.
func New(ch channel.Channel, logger *log.Logger, opts ...Option) *Editor {
	if logger == nil {
		logger = log.Default()
	}
	e := &Editor{channel: ch, roster: DenseRoster{}, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddBeat appends beat with an optional revisor and assigns it. When id is
// nil the roster chooses one. The assigned ID is returned. A requested ID
// the roster refuses leaves the editor and the beat untouched.
func (e *Editor) AddBeat(beat Beat, revisor Revisor, id *int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(beat, revisor, id)
}

func (e *Editor) addLocked(beat Beat, revisor Revisor, id *int) (int, error) {
	assigned, ok := e.roster.Admit(e.ids, id)
	if !ok {
		e.logger.Printf("editor: refused id %d with %d beats attached", *id, len(e.ids))
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, *id)
	}
	e.slots = append(e.slots, slot{beat: beat, revisor: revisor})
	e.ids = append(e.ids, assigned)
	beat.AssignBeat(e, assigned)
	return assigned, nil
}

// AssignGroup adds beats in order. revisors and ids may be nil; otherwise
// they must match beats in length. The group is added whole or not at all.
func (e *Editor) AssignGroup(beats []Beat, revisors []Revisor, ids []int) ([]int, error) {
	if (revisors != nil && len(revisors) != len(beats)) || (ids != nil && len(ids) != len(beats)) {
		e.logger.Printf("editor: group of %d beats with %d revisors and %d ids", len(beats), len(revisors), len(ids))
		return nil, fmt.Errorf("editor: group of %d beats with %d revisors and %d ids", len(beats), len(revisors), len(ids))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	base := len(e.slots)
	out := make([]int, len(beats))
	for i, b := range beats {
		var rev Revisor
		if revisors != nil {
			rev = revisors[i]
		}
		var want *int
		if ids != nil {
			want = &ids[i]
		}
		id, err := e.addLocked(b, rev, want)
		if err != nil {
			for _, s := range e.slots[base:] {
				s.beat.Unassign()
			}
			e.slots, e.ids = e.slots[:base], e.ids[:base]
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// RemoveBeat unassigns the beat with the given ID and drops it together
// with its revisor. Remaining beats are renumbered by the roster. An
// unknown ID is ignored.
func (e *Editor) RemoveBeat(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.roster.Locate(e.ids, id)
	if !ok {
		return false
	}
	removed := e.slots[pos].beat
	e.slots = append(e.slots[:pos], e.slots[pos+1:]...)
	ids := append(e.ids[:pos], e.ids[pos+1:]...)
	removed.Unassign()

	e.ids = e.roster.Renumber(ids, pos)
	for i := range e.slots {
		if e.ids[i] != ids[i] {
			e.slots[i].beat.Reassign(e.ids[i])
		}
	}
	return true
}

// Incoming receives a payload filed under id. The payload is revised when
// the beat has a revisor, then sent unless it is nil. The result reports
// whether the channel accepted it.
func (e *Editor) Incoming(id int, payload any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Received++

	pos, ok := e.roster.Locate(e.ids, id)
	if !ok {
		e.stats.Ignored++
		return false
	}
	rev := e.slots[pos].revisor
	if rev != nil {
		payload = rev.Review(payload)
	}
	if payload == nil {
		e.stats.Ignored++
		return false
	}
	if !e.channel.Send(payload) {
		e.stats.Undelivered++
		return false
	}
	e.stats.Forwarded++
	if c, ok := rev.(Confirmer); ok {
		c.Delivered()
	}
	return true
}

// Beats returns the beats in slot order.
func (e *Editor) Beats() []Beat {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Beat, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.beat
	}
	return out
}

// IDs returns the current assignment IDs in slot order.
func (e *Editor) IDs() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.ids...)
}

// Len returns the number of beats.
func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.slots)
}

// Stats returns a snapshot of the counters.
func (e *Editor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.Beats = len(e.slots)
	return s
}

// Channel returns the terminal channel.
func (e *Editor) Channel() channel.Channel { return e.channel }

// Close unassigns every beat and closes the channel when it holds a
// resource.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.slots {
		s.beat.Unassign()
	}
	e.slots, e.ids = nil, nil
	if c, ok := e.channel.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ channel.Desk = (*Editor)(nil)
