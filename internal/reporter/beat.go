package reporter

import (
	"go-report-pipeline/internal/channel"
	"go-report-pipeline/internal/draft"
	"go-report-pipeline/internal/editor"
	"go-report-pipeline/internal/fsm"
	"go-report-pipeline/internal/trigger"
)

// State is the assignment lifecycle of a beat reporter.
type State int

const (
	Unassigned State = iota
	Active
	Paused
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	default:
		return "unassigned"
	}
}

type cue string

const (
	cueAssign   cue = "assign"
	cuePause    cue = "pause"
	cueResume   cue = "resume"
	cueUnassign cue = "unassign"
)

// BeatReporter is a reporter that files to an editor through its own
// Assignment channel instead of writing to a terminal sink.
type BeatReporter[S any] struct {
	name       string
	trigger    trigger.Trigger[S]
	announcer  draft.Announcer[S]
	assignment *channel.Assignment
	filter     func(S) S
	life       *fsm.FSM[State, cue]
}

// NewBeatReporter builds an unassigned beat with a fresh Assignment channel.
// keepQuiet beats accumulate without ever forwarding.
func NewBeatReporter[S any](t trigger.Trigger[S], a draft.Announcer[S], keepQuiet bool) *BeatReporter[S] {
	b := &BeatReporter[S]{
		trigger:    t,
		announcer:  a,
		assignment: channel.NewAssignment(keepQuiet),
		life:       fsm.New[State, cue](Unassigned),
	}
	for _, tr := range []fsm.Transition[State, cue]{
		{From: Unassigned, Event: cueAssign, To: Active},
		{From: Active, Event: cueAssign, To: Active},
		{From: Paused, Event: cueAssign, To: Active},
		{From: Active, Event: cuePause, To: Paused},
		{From: Paused, Event: cueResume, To: Active},
		{From: Active, Event: cueUnassign, To: Unassigned},
		{From: Paused, Event: cueUnassign, To: Unassigned},
	} {
		b.life.AddTransition(tr)
	}
	b.life.AddStateActions(Unassigned, fsm.StateActions{OnEnter: b.assignment.Unassign})
	return b
}

// WithFilter installs a function applied to the signal after the trigger
// fired and before the announcer sees it.
func (b *BeatReporter[S]) WithFilter(filter func(S) S) *BeatReporter[S] {
	b.filter = filter
	return b
}

// WithName labels the beat for logs and configuration.
func (b *BeatReporter[S]) WithName(name string) *BeatReporter[S] {
	b.name = name
	return b
}

// Name returns the label set by WithName.
func (b *BeatReporter[S]) Name() string { return b.name }

// Process handles sig only while the beat is active. Paused or unassigned
// beats do not even test their trigger, so no history accumulates.
func (b *BeatReporter[S]) Process(sig S) bool {
	if b.life.State() != Active {
		return false
	}
	if !b.trigger.Test(sig) {
		return false
	}
	if b.filter != nil {
		sig = b.filter(sig)
	}
	publish[S](b.announcer, b.assignment, sig)
	return true
}

// AssignBeat points the beat's channel at desk under id and activates it.
func (b *BeatReporter[S]) AssignBeat(desk channel.Desk, id int) {
	b.assignment.Assign(id, desk)
	b.life.Fire(cueAssign)
}

// AssignToEditor adds the beat to ed and returns the ID it was given.
func (b *BeatReporter[S]) AssignToEditor(ed *editor.Editor, revisor editor.Revisor, id *int) (int, error) {
	return ed.AddBeat(b, revisor, id)
}

// Reassign changes the assignment ID, keeping desk and state.
func (b *BeatReporter[S]) Reassign(id int) { b.assignment.Reassign(id) }

// Unassign detaches the beat from its desk.
func (b *BeatReporter[S]) Unassign() { b.life.Fire(cueUnassign) }

// Pause stops processing without losing the assignment.
func (b *BeatReporter[S]) Pause() bool { return b.life.Fire(cuePause) }

// Resume restarts a paused beat.
func (b *BeatReporter[S]) Resume() bool { return b.life.Fire(cueResume) }

// State returns the lifecycle state.
func (b *BeatReporter[S]) State() State { return b.life.State() }

// ID returns the assignment ID and whether the beat is assigned.
func (b *BeatReporter[S]) ID() (int, bool) { return b.assignment.ID() }

// SetQuiet toggles whether the beat forwards to its desk.
func (b *BeatReporter[S]) SetQuiet(quiet bool) { b.assignment.SetQuiet(quiet) }

// Quiet reports whether the beat only accumulates.
func (b *BeatReporter[S]) Quiet() bool { return b.assignment.Quiet() }

// Message exposes the announcer's current payload.
func (b *BeatReporter[S]) Message() any { return b.announcer.Message() }

// Ack acknowledges the announcer's payload as delivered.
func (b *BeatReporter[S]) Ack() { b.announcer.Ack() }

// Announcer returns the beat's announcer.
func (b *BeatReporter[S]) Announcer() draft.Announcer[S] { return b.announcer }

// Reset clears the trigger history if the trigger keeps any.
func (b *BeatReporter[S]) Reset() {
	if rs, ok := b.trigger.(trigger.Resetter); ok {
		rs.Reset()
	}
}

var _ editor.Beat = (*BeatReporter[int])(nil)
