package draft

import (
	"fmt"
	"strconv"

	"go-report-pipeline/internal/core"
)

// Layouts used by TimeOf and DateOf.
const (
	TimeLayout = "15:04:05.000"
	DateLayout = "2006-01-02 15:04:05"
)

// Passthrough returns the signal unchanged.
func Passthrough[S any](sig S) any { return sig }

// Iterable wraps the signal into a one-element sequence, which a CSV channel
// writes as a single-cell row.
func Iterable[S any](sig S) any { return []any{sig} }

// Fixed ignores the signal and always yields text.
func Fixed[S any](text string) func(S) any {
	return func(S) any { return text }
}

// Sprint renders the signal with fmt's default format.
func Sprint[S any](sig S) any { return fmt.Sprint(sig) }

// IntText renders an integer signal in base 10.
func IntText[I ~int | ~int8 | ~int16 | ~int32 | ~int64](sig I) any {
	return strconv.FormatInt(int64(sig), 10)
}

// FormatFloat returns a converter rendering numbers with a fmt verb such as
// "%.2f".
func FormatFloat[F ~float32 | ~float64](layout string) func(F) any {
	return func(sig F) any { return fmt.Sprintf(layout, sig) }
}

// TimeOf stamps the moment of the call, ignoring the signal.
func TimeOf[S any](clock core.Clock) func(S) any {
	if clock == nil {
		clock = core.RealClock{}
	}
	return func(S) any { return clock.Now().Format(TimeLayout) }
}

// DateOf is TimeOf with the calendar date included.
func DateOf[S any](clock core.Clock) func(S) any {
	if clock == nil {
		clock = core.RealClock{}
	}
	return func(S) any { return clock.Now().Format(DateLayout) }
}

// Counter is a monotonic counter shared by the converters built from it.
type Counter struct {
	start int
	next  int
}

// NewCounter returns a counter whose first Next yields start.
func NewCounter(start int) *Counter {
	return &Counter{start: start, next: start}
}

// Next returns the current count and advances it.
func (c *Counter) Next() int {
	n := c.next
	c.next++
	return n
}

// Peek returns the value the next call to Next will yield.
func (c *Counter) Peek() int { return c.next }

// Reset rewinds the counter to its start value.
func (c *Counter) Reset() { c.next = c.start }

// Count converts every signal into the counter's next value.
func Count[S any](c *Counter) func(S) any {
	return func(S) any { return c.Next() }
}

// CountReset yields how many counts were issued since the last reset and
// then rewinds the counter. Paired with Count it reports per-episode totals.
func CountReset[S any](c *Counter) func(S) any {
	return func(S) any {
		n := c.Peek() - c.start
		c.Reset()
		return n
	}
}
