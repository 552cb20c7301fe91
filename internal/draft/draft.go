// Package draft turns triggered signals into payloads for a channel.
//
// An Announcement renders immediately. A Commentary stores the signal in a
// saved form and renders only when asked, and a RunningCommentary keeps
// appending saved forms until a delivery is acknowledged.
package draft

// Announcer prepares a payload from a signal and hands it out on request.
// Ack is called only after a channel confirmed delivery.
type Announcer[S any] interface {
	Prepare(sig S)
	Message() any
	Ack()
}

// Announcement converts each prepared signal right away.
type Announcement[S any] struct {
	convert func(S) any
	message any
}

// NewAnnouncement builds an Announcement. A nil converter passes the signal
// through untouched.
func NewAnnouncement[S any](signal2text func(S) any) *Announcement[S] {
	if signal2text == nil {
		signal2text = Passthrough[S]
	}
	return &Announcement[S]{convert: signal2text}
}

func (a *Announcement[S]) Prepare(sig S) { a.message = a.convert(sig) }

func (a *Announcement[S]) Message() any { return a.message }

func (a *Announcement[S]) Ack() {}

// Commentary saves the signal and defers rendering.
type Commentary[S any] struct {
	save   func(S) any
	render func(any) any

	saved        any
	announcement any
}

// NewCommentary builds a Commentary. A nil saver keeps the signal as is; a
// nil render means Message returns the saved form directly.
func NewCommentary[S any](saver func(S) any, render func(any) any) *Commentary[S] {
	if saver == nil {
		saver = Passthrough[S]
	}
	return &Commentary[S]{save: saver, render: render}
}

func (c *Commentary[S]) Prepare(sig S) { c.saved = c.save(sig) }

// Saved returns the stored form without rendering it.
func (c *Commentary[S]) Saved() any { return c.saved }

func (c *Commentary[S]) Message() any {
	if c.render == nil {
		return c.saved
	}
	return c.render(c.saved)
}

// ReportOut refreshes the rendered announcement from the saved form.
func (c *Commentary[S]) ReportOut() {
	c.announcement = c.Message()
}

// Announcement returns whatever the last ReportOut rendered.
func (c *Commentary[S]) Announcement() any { return c.announcement }

func (c *Commentary[S]) Ack() {}

// RunningCommentary accumulates saved forms in call order and flushes them
// only when a delivery is acknowledged, so many trigger events can fold into
// one wide output row.
type RunningCommentary[S any] struct {
	save   func(S) any
	render func(any) any

	leader    any
	hasLeader bool

	items        []any
	announcement any
}

// NewRunningCommentary builds a RunningCommentary; nil functions behave as
// in NewCommentary.
func NewRunningCommentary[S any](saver func(S) any, render func(any) any) *RunningCommentary[S] {
	if saver == nil {
		saver = Passthrough[S]
	}
	return &RunningCommentary[S]{save: saver, render: render}
}

// WithLeader sets a value that heads every message, e.g. a column label.
func (c *RunningCommentary[S]) WithLeader(leader any) *RunningCommentary[S] {
	c.leader = leader
	c.hasLeader = true
	return c
}

func (c *RunningCommentary[S]) Prepare(sig S) {
	c.items = append(c.items, c.save(sig))
}

// Len reports how many saved forms are pending.
func (c *RunningCommentary[S]) Len() int { return len(c.items) }

// Message returns the leader (if any) followed by a copy of the pending
// items, rendered when a render function is configured.
func (c *RunningCommentary[S]) Message() any {
	seq := make([]any, 0, len(c.items)+1)
	if c.hasLeader {
		seq = append(seq, c.leader)
	}
	seq = append(seq, c.items...)
	if c.render == nil {
		return seq
	}
	return c.render(seq)
}

func (c *RunningCommentary[S]) ReportOut() {
	c.announcement = c.Message()
}

func (c *RunningCommentary[S]) Announcement() any { return c.announcement }

// Ack drops everything accumulated so far.
func (c *RunningCommentary[S]) Ack() {
	c.items = c.items[:0]
}

var (
	_ Announcer[int] = (*Announcement[int])(nil)
	_ Announcer[int] = (*Commentary[int])(nil)
	_ Announcer[int] = (*RunningCommentary[int])(nil)
)
