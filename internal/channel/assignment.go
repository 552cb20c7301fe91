package channel

import "sync"

// Desk receives beat output on behalf of an editor. Incoming reports
// whether the payload reached the desk's own sink.
type Desk interface {
	Incoming(id int, payload any) bool
}

// Assignment links a beat reporter to the desk it files for. It does no I/O
// itself; Send forwards to the desk under the current assignment ID.
type Assignment struct {
	mu       sync.Mutex
	id       int
	desk     Desk
	quiet    bool
	assigned bool
}

// NewAssignment returns an unassigned channel. A quiet assignment never
// forwards, so its beat only accumulates until someone else publishes.
func NewAssignment(keepQuiet bool) *Assignment {
	return &Assignment{quiet: keepQuiet}
}

// Assign binds the channel to desk under id.
func (a *Assignment) Assign(id int, desk Desk) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id, a.desk, a.assigned = id, desk, desk != nil
}

// Reassign changes the ID while keeping the desk.
func (a *Assignment) Reassign(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id = id
}

// Unassign detaches the channel from its desk.
func (a *Assignment) Unassign() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id, a.desk, a.assigned = 0, nil, false
}

// ID returns the current assignment ID and whether the channel is assigned.
func (a *Assignment) ID() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id, a.assigned
}

// SetQuiet toggles forwarding.
func (a *Assignment) SetQuiet(quiet bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quiet = quiet
}

// Quiet reports whether forwarding is suppressed.
func (a *Assignment) Quiet() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quiet
}

func (a *Assignment) Send(payload any) bool {
	a.mu.Lock()
	id, desk, ok := a.id, a.desk, a.assigned && !a.quiet
	a.mu.Unlock()
	// The desk takes its own lock; never call it while holding ours.
	if !ok {
		return false
	}
	return desk.Incoming(id, payload)
}

var _ Channel = (*Assignment)(nil)
