package trigger

// Direction selects which transition an Edge trigger reports.
type Direction int

const (
	RisingEdge Direction = iota
	FallingEdge
)

func (d Direction) String() string {
	if d == FallingEdge {
		return "falling"
	}
	return "rising"
}

// EdgeOption configures an Edge trigger.
type EdgeOption func(*edgeSeed)

type edgeSeed struct {
	state  bool
	seeded bool
}

// WithInitial seeds the previous state so the very first signal can already
// produce an edge.
func WithInitial(state bool) EdgeOption {
	return func(s *edgeSeed) {
		s.state = state
		s.seeded = true
	}
}

// Edge is a transition detector over a boolean view of the signal.
//
// Without WithInitial the first signal only establishes the baseline; the
// real initial state is unknown at startup and reporting an edge there
// would be spurious.
type Edge[S any] struct {
	truth func(S) bool
	dir   Direction
	seed  edgeSeed

	prev   bool
	isInit bool
}

// Rising fires on a false to true transition.
func Rising[S any](truth func(S) bool, opts ...EdgeOption) *Edge[S] {
	return newEdge(truth, RisingEdge, opts)
}

// Falling fires on a true to false transition.
func Falling[S any](truth func(S) bool, opts ...EdgeOption) *Edge[S] {
	return newEdge(truth, FallingEdge, opts)
}

func newEdge[S any](truth func(S) bool, dir Direction, opts []EdgeOption) *Edge[S] {
	t := &Edge[S]{truth: truth, dir: dir}
	for _, opt := range opts {
		opt(&t.seed)
	}
	t.Reset()
	return t
}

// Direction reports which edge the trigger fires on.
func (t *Edge[S]) Direction() Direction { return t.dir }

func (t *Edge[S]) Test(sig S) bool {
	cur := t.truth(sig)
	if !t.isInit {
		t.isInit = true
		t.prev = cur
		return false
	}

	fired := false
	switch {
	case t.prev && !cur:
		fired = t.dir == FallingEdge
	case !t.prev && cur:
		fired = t.dir == RisingEdge
	}
	t.prev = cur
	return fired
}

// Reset restores the constructed state, including any seeded initial value.
func (t *Edge[S]) Reset() {
	t.prev = t.seed.state
	t.isInit = t.seed.seeded
}

// Bool is the truth function for plain boolean signals.
func Bool(b bool) bool { return b }

// Nonzero treats any non-zero number as true.
func Nonzero[N Number](v N) bool { return v != 0 }

var (
	_ Trigger[bool] = (*Edge[bool])(nil)
	_ Resetter      = (*Edge[bool])(nil)
)
