package trigger

import "slices"

// Window feeds the last size scalar samples, oldest first, to a vector
// trigger. It stays silent until the window has filled.
type Window[N Number] struct {
	size  int
	inner Trigger[[]float64]
	buf   []float64
}

// Windowed wraps inner so it sees a sliding window of size samples.
func Windowed[N Number](size int, inner Trigger[[]float64]) *Window[N] {
	if size < 1 {
		size = 1
	}
	return &Window[N]{size: size, inner: inner, buf: make([]float64, 0, size)}
}

func (t *Window[N]) Test(sig N) bool {
	if len(t.buf) == t.size {
		t.buf = append(t.buf[:0], t.buf[1:]...)
	}
	t.buf = append(t.buf, float64(sig))
	if len(t.buf) < t.size {
		return false
	}
	// inner may keep the slice as its baseline.
	return t.inner.Test(slices.Clone(t.buf))
}

func (t *Window[N]) Reset() {
	t.buf = t.buf[:0]
	if r, ok := t.inner.(Resetter); ok {
		r.Reset()
	}
}

var (
	_ Trigger[float64] = (*Window[float64])(nil)
	_ Resetter         = (*Window[float64])(nil)
)
