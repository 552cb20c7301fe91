package trigger

import "gonum.org/v1/gonum/floats"

// Number covers the scalar signal types the distance helpers accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Distance measures how far apart two signals are.
type Distance[S any] func(a, b S) float64

// ScalarDist is |a-b| for numeric signals.
func ScalarDist[N Number](a, b N) float64 {
	d := float64(a) - float64(b)
	if d < 0 {
		return -d
	}
	return d
}

// VectorDist is the Euclidean distance between two equal-length vectors.
// It panics when the lengths differ.
func VectorDist(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

type proximityMode int

const (
	closeTo proximityMode = iota
	farFrom
)

// Proximity compares each signal against a fixed target.
type Proximity[S any] struct {
	target S
	tau    float64
	dist   Distance[S]
	mode   proximityMode
}

// WhenClose fires when dist(target, sig) < tau.
func WhenClose[S any](target S, tau float64, dist Distance[S]) *Proximity[S] {
	return &Proximity[S]{target: target, tau: tau, dist: dist, mode: closeTo}
}

// WhenFar fires when dist(target, sig) > tau.
func WhenFar[S any](target S, tau float64, dist Distance[S]) *Proximity[S] {
	return &Proximity[S]{target: target, tau: tau, dist: dist, mode: farFrom}
}

// NewTarget replaces the reference signal.
func (t *Proximity[S]) NewTarget(target S) { t.target = target }

func (t *Proximity[S]) Test(sig S) bool {
	d := t.dist(t.target, sig)
	if t.mode == farFrom {
		return d > t.tau
	}
	return d < t.tau
}

// Drift compares each signal against the previous one.
type Drift[S any] struct {
	tau  float64
	dist Distance[S]
	mode proximityMode

	prev   S
	isInit bool
}

// WhenSimilar fires when the signal moved less than tau since the last call.
// The first call records the baseline and never fires.
func WhenSimilar[S any](tau float64, dist Distance[S]) *Drift[S] {
	return &Drift[S]{tau: tau, dist: dist, mode: closeTo}
}

// WhenDiffers fires when the signal moved more than tau since the last call.
func WhenDiffers[S any](tau float64, dist Distance[S]) *Drift[S] {
	return &Drift[S]{tau: tau, dist: dist, mode: farFrom}
}

func (t *Drift[S]) Test(sig S) bool {
	fired := false
	if t.isInit {
		d := t.dist(t.prev, sig)
		if t.mode == farFrom {
			fired = d > t.tau
		} else {
			fired = d < t.tau
		}
	} else {
		t.isInit = true
	}
	t.prev = sig
	return fired
}

func (t *Drift[S]) Reset() {
	var zero S
	t.prev = zero
	t.isInit = false
}

var (
	_ Trigger[float64] = (*Proximity[float64])(nil)
	_ Trigger[float64] = (*Drift[float64])(nil)
	_ Resetter         = (*Drift[float64])(nil)
)
