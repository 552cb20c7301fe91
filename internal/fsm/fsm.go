// Package fsm is a small table-driven finite state machine.
package fsm

import (
	"fmt"
	"sync"
)

// Transition moves the machine from From to To when Event fires.
type Transition[S, E comparable] struct {
	From   S
	Event  E
	To     S
	Action func()
}

// StateActions groups callbacks for a state lifecycle.
type StateActions struct {
	OnEnter func()
	OnExit  func()
}

// FSM holds the current state and the transition table. Callbacks run
// with the machine locked and must not call back into it.
type FSM[S, E comparable] struct {
	mu           sync.RWMutex
	initial      S
	current      S
	transitions  map[S]map[E]Transition[S, E]
	stateActions map[S]StateActions
}

// New returns a machine resting in initial.
func New[S, E comparable](initial S) *FSM[S, E] {
	return &FSM[S, E]{
		initial:      initial,
		current:      initial,
		transitions:  make(map[S]map[E]Transition[S, E]),
		stateActions: make(map[S]StateActions),
	}
}

// AddTransition registers t, replacing any transition with the same From
// and Event.
func (f *FSM[S, E]) AddTransition(t Transition[S, E]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.transitions[t.From]; !ok {
		f.transitions[t.From] = make(map[E]Transition[S, E])
	}
	f.transitions[t.From][t.Event] = t
}

// AddStateActions sets callbacks for s.
func (f *FSM[S, E]) AddStateActions(s S, actions StateActions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateActions[s] = actions
}

// Validate checks that every state with actions can be reached from the
// initial state.
func (f *FSM[S, E]) Validate() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	reachable := map[S]bool{f.initial: true}
	for changed := true; changed; {
		changed = false
		for from, evs := range f.transitions {
			if !reachable[from] {
				continue
			}
			for _, t := range evs {
				if !reachable[t.To] {
					reachable[t.To] = true
					changed = true
				}
			}
		}
	}
	for s := range f.stateActions {
		if !reachable[s] {
			return fmt.Errorf("fsm: state %v unreachable", s)
		}
	}
	return nil
}

// Fire applies e to the current state. It reports false, leaving the state
// untouched, when no transition is registered for e.
func (f *FSM[S, E]) Fire(e E) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transitions[f.current][e]
	if !ok {
		return false
	}
	if act := f.stateActions[f.current]; act.OnExit != nil {
		act.OnExit()
	}
	if t.Action != nil {
		t.Action()
	}
	f.current = t.To
	if act := f.stateActions[f.current]; act.OnEnter != nil {
		act.OnEnter()
	}
	return true
}

// Can reports whether e has a transition from the current state.
func (f *FSM[S, E]) Can(e E) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.transitions[f.current][e]
	return ok
}

// State returns the current state.
func (f *FSM[S, E]) State() S {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}
