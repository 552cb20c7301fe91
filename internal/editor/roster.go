package editor

// Roster decides how assignment IDs map onto the editor's ordered slots.
// ids is always the current ID of each slot, in slot order.
type Roster interface {
	// Admit picks the ID for a beat appended after ids. want is the
	// caller's requested ID, or nil. It reports false when want cannot be
	// honored.
	Admit(ids []int, want *int) (int, bool)
	// Locate returns the slot that owns id.
	Locate(ids []int, id int) (int, bool)
	// Renumber returns the IDs after the slot at removed was dropped.
	// ids already excludes that slot.
	Renumber(ids []int, removed int) []int
}

// DenseRoster treats an ID as a slot position. Removing a beat shifts
// every later beat down by one so IDs stay 0..n-1. A requested ID must
// therefore be the next free position.
type DenseRoster struct{}

func (DenseRoster) Admit(ids []int, want *int) (int, bool) {
	if want != nil && *want != len(ids) {
		return 0, false
	}
	return len(ids), true
}

func (DenseRoster) Locate(ids []int, id int) (int, bool) {
	if id < 0 || id >= len(ids) {
		return 0, false
	}
	return id, true
}

func (DenseRoster) Renumber(ids []int, removed int) []int {
	out := append([]int(nil), ids...)
	for i := removed; i < len(out); i++ {
		out[i] = i
	}
	return out
}

// StableRoster hands out IDs that never change once assigned. Lookup is by
// value, so IDs are opaque handles rather than positions.
type StableRoster struct {
	next int
}

func (r *StableRoster) Admit(ids []int, want *int) (int, bool) {
	if want != nil {
		if _, taken := r.Locate(ids, *want); taken {
			return 0, false
		}
		if *want >= r.next {
			r.next = *want + 1
		}
		return *want, true
	}
	id := r.next
	r.next++
	return id, true
}

func (r *StableRoster) Locate(ids []int, id int) (int, bool) {
	for i, v := range ids {
		if v == id {
			return i, true
		}
	}
	return 0, false
}

func (r *StableRoster) Renumber(ids []int, _ int) []int {
	return append([]int(nil), ids...)
}

var (
	_ Roster = DenseRoster{}
	_ Roster = (*StableRoster)(nil)
)
