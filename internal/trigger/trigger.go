// Package trigger decides whether the current signal in a stream is worth
// reporting. Triggers keep their own history and are owned by exactly one
// reporter; they are not safe for concurrent use.
package trigger

// Trigger tests a signal and reports whether it should be announced.
type Trigger[S any] interface {
	Test(sig S) bool
}

// Resetter is implemented by triggers that carry history.
type Resetter interface {
	Reset()
}

// Never is the do-nothing trigger. It never fires.
type Never[S any] struct{}

func (Never[S]) Test(S) bool { return false }

// Always fires on every signal.
type Always[S any] struct{}

func (Always[S]) Test(S) bool { return true }

// Func adapts a plain predicate into a stateless Trigger.
type Func[S any] func(S) bool

func (f Func[S]) Test(sig S) bool { return f(sig) }

// Change fires when the signal differs from the previous one.
type Change[S any] struct {
	equal  func(a, b S) bool
	prev   S
	isInit bool
}

// OnChange builds a Change trigger using ==. The first call only records
// the baseline and never fires.
func OnChange[S comparable]() *Change[S] {
	return &Change[S]{equal: func(a, b S) bool { return a == b }}
}

// OnChangeFunc is OnChange for signals that need a custom equality.
func OnChangeFunc[S any](equal func(a, b S) bool) *Change[S] {
	return &Change[S]{equal: equal}
}

func (t *Change[S]) Test(sig S) bool {
	changed := false
	if t.isInit {
		changed = !t.equal(t.prev, sig)
	} else {
		t.isInit = true
	}
	t.prev = sig
	return changed
}

func (t *Change[S]) Reset() {
	var zero S
	t.prev = zero
	t.isInit = false
}

// Match fires whenever the signal equals the target.
type Match[S any] struct {
	equal  func(a, b S) bool
	target S
}

// OnMatch builds a Match trigger using ==.
func OnMatch[S comparable](target S) *Match[S] {
	return &Match[S]{target: target, equal: func(a, b S) bool { return a == b }}
}

// OnMatchFunc is OnMatch with a custom equality.
func OnMatchFunc[S any](target S, equal func(a, b S) bool) *Match[S] {
	return &Match[S]{target: target, equal: equal}
}

// NewTarget replaces the value signals are matched against.
func (t *Match[S]) NewTarget(target S) { t.target = target }

// Target returns the current target.
func (t *Match[S]) Target() S { return t.target }

func (t *Match[S]) Test(sig S) bool { return t.equal(t.target, sig) }

var (
	_ Trigger[int] = Never[int]{}
	_ Trigger[int] = Always[int]{}
	_ Trigger[int] = Func[int](nil)
	_ Trigger[int] = (*Change[int])(nil)
	_ Trigger[int] = (*Match[int])(nil)
	_ Resetter     = (*Change[int])(nil)
)
