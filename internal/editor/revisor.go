package editor

// Revisor rewrites a beat's payload before it reaches the editor's channel.
// Returning nil suppresses the send.
type Revisor interface {
	Review(payload any) any
}

// Confirmer is implemented by revisors that need to know their last review
// was delivered.
type Confirmer interface {
	Delivered()
}

// RevisorFunc adapts a plain function to Revisor.
type RevisorFunc func(payload any) any

func (f RevisorFunc) Review(payload any) any { return f(payload) }

// Roundup returns a revisor that ignores the incoming payload and instead
// gathers the current message of every beat on ed, in slot order, into one
// row. Nested []any messages are flattened and nil messages skipped. Once
// the row is delivered every contributing beat is acknowledged, so quiet
// beats that only accumulate are flushed with the beat that triggered.
//
// Review runs under the editor lock and reads other beats' announcers; use
// it on desks whose beats are all driven from one goroutine.
func Roundup(ed *Editor) Revisor {
	return &roundup{ed: ed}
}

type roundup struct {
	ed      *Editor
	pending []Beat
}

func (r *roundup) Review(any) any {
	r.pending = r.pending[:0]
	var row []any
	for _, s := range r.ed.slots {
		switch m := s.beat.Message().(type) {
		case nil:
			continue
		case []any:
			row = append(row, m...)
		default:
			row = append(row, m)
		}
		r.pending = append(r.pending, s.beat)
	}
	if len(row) == 0 {
		return nil
	}
	return row
}

func (r *roundup) Delivered() {
	for _, b := range r.pending {
		b.Ack()
	}
	r.pending = r.pending[:0]
}

var (
	_ Revisor   = RevisorFunc(nil)
	_ Revisor   = (*roundup)(nil)
	_ Confirmer = (*roundup)(nil)
)
