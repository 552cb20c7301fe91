package editor_test

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go-report-pipeline/internal/channel"
	"go-report-pipeline/internal/draft"
	"go-report-pipeline/internal/editor"
	"go-report-pipeline/internal/reporter"
	"go-report-pipeline/internal/trigger"
)

type sink struct {
	deliver bool
	sent    []any
	closed  bool
}

func (s *sink) Send(payload any) bool {
	if !s.deliver {
		return false
	}
	s.sent = append(s.sent, payload)
	return true
}

func (s *sink) Close() error {
	s.closed = true
	return errors.New("closed")
}

func beat(label string) *reporter.BeatReporter[int] {
	return reporter.NewBeatReporter[int](trigger.Always[int]{}, draft.NewAnnouncement(draft.Fixed[int](label)), false)
}

func mustAdd(t *testing.T, ed *editor.Editor, b editor.Beat, rev editor.Revisor, id *int) int {
	t.Helper()
	got, err := ed.AddBeat(b, rev, id)
	if err != nil {
		t.Fatalf("AddBeat: %v", err)
	}
	return got
}

func TestAddBeatAssignsSequentialIDs(t *testing.T) {
	ed := editor.New(&sink{deliver: true}, nil)
	a, b := beat("a"), beat("b")
	if id := mustAdd(t, ed, a, nil, nil); id != 0 {
		t.Fatalf("first id = %d, want 0", id)
	}
	if id := mustAdd(t, ed, b, nil, nil); id != 1 {
		t.Fatalf("second id = %d, want 1", id)
	}
	if a.State() != reporter.Active {
		t.Fatalf("state = %s, want active", a.State())
	}
	if id, ok := b.ID(); !ok || id != 1 {
		t.Fatalf("b.ID() = %d, %v", id, ok)
	}
	if ed.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ed.Len())
	}
}

func TestAddBeatExplicitIDDelivers(t *testing.T) {
	out := &sink{deliver: true}
	ed := editor.New(out, nil)
	tag := editor.RevisorFunc(func(p any) any { return "x:" + p.(string) })
	zero, one := 0, 1
	x, y := beat("x"), beat("y")
	mustAdd(t, ed, x, tag, &zero)
	mustAdd(t, ed, y, nil, &one)

	if !x.Process(0) || !y.Process(0) {
		t.Fatal("both beats should fire")
	}
	if diff := cmp.Diff([]any{"x:x", "y"}, out.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
	if st := ed.Stats(); st.Forwarded != 2 || st.Ignored != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestAddBeatRefusesUnusableIDs(t *testing.T) {
	var logs bytes.Buffer
	out := &sink{deliver: true}
	ed := editor.New(out, log.New(&logs, "", 0))
	x := beat("x")
	zero := 0
	mustAdd(t, ed, x, nil, &zero)

	cases := []struct {
		name string
		want int
	}{
		{"taken", 0},
		{"gap", 5},
		{"negative", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			y := beat("y")
			want := tc.want
			if _, err := ed.AddBeat(y, nil, &want); !errors.Is(err, editor.ErrInvalidID) {
				t.Fatalf("AddBeat(%d) err = %v, want ErrInvalidID", tc.want, err)
			}
			if y.State() != reporter.Unassigned {
				t.Fatalf("refused beat state = %s", y.State())
			}
		})
	}
	if diff := cmp.Diff([]int{0}, ed.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "refused id 5") {
		t.Fatalf("log = %q", logs.String())
	}

	x.Process(0)
	if diff := cmp.Diff([]any{"x"}, out.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
}

func TestStableRosterRefusesDuplicateID(t *testing.T) {
	out := &sink{deliver: true}
	ed := editor.New(out, nil, editor.WithRoster(&editor.StableRoster{}))
	seven := 7
	a, b := beat("a"), beat("b")
	mustAdd(t, ed, a, nil, &seven)
	if _, err := ed.AddBeat(b, nil, &seven); !errors.Is(err, editor.ErrInvalidID) {
		t.Fatalf("duplicate id err = %v", err)
	}
	if id := mustAdd(t, ed, b, nil, nil); id != 8 {
		t.Fatalf("next id = %d, want 8", id)
	}
	a.Process(0)
	b.Process(0)
	if diff := cmp.Diff([]any{"a", "b"}, out.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveBeatReindexes(t *testing.T) {
	out := &sink{deliver: true}
	ed := editor.New(out, nil)
	beats := []*reporter.BeatReporter[int]{beat("a"), beat("b"), beat("c")}
	for _, b := range beats {
		mustAdd(t, ed, b, nil, nil)
	}

	if !ed.RemoveBeat(1) {
		t.Fatal("RemoveBeat(1) = false")
	}
	if diff := cmp.Diff([]int{0, 1}, ed.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if beats[1].State() != reporter.Unassigned {
		t.Fatalf("removed beat state = %s", beats[1].State())
	}
	if id, _ := beats[2].ID(); id != 1 {
		t.Fatalf("later beat id = %d, want 1", id)
	}

	if ed.Incoming(2, "stale") {
		t.Fatal("old id 2 should be out of range")
	}
	if len(out.sent) != 0 {
		t.Fatalf("sent = %v", out.sent)
	}

	beats[2].Process(0)
	beats[1].Process(0)
	if diff := cmp.Diff([]any{"c"}, out.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}

	if ed.RemoveBeat(7) {
		t.Fatal("RemoveBeat(7) should miss")
	}
	want := editor.Stats{Beats: 2, Received: 2, Forwarded: 1, Ignored: 1}
	if diff := cmp.Diff(want, ed.Stats()); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestStableRosterKeepsIDs(t *testing.T) {
	out := &sink{deliver: true}
	ed := editor.New(out, nil, editor.WithRoster(&editor.StableRoster{}))
	for _, b := range []editor.Beat{beat("a"), beat("b"), beat("c")} {
		mustAdd(t, ed, b, nil, nil)
	}

	if !ed.RemoveBeat(1) {
		t.Fatal("RemoveBeat(1) = false")
	}
	if diff := cmp.Diff([]int{0, 2}, ed.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if !ed.Incoming(2, "still c") {
		t.Fatal("id 2 should still reach c")
	}
	if id := mustAdd(t, ed, beat("d"), nil, nil); id != 3 {
		t.Fatalf("new id = %d, want 3; ids are never reused", id)
	}
	if diff := cmp.Diff([]any{"still c"}, out.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
}

func TestIncomingRevisesAndSkipsNil(t *testing.T) {
	out := &sink{deliver: true}
	ed := editor.New(out, nil)
	upper := editor.RevisorFunc(func(p any) any { return p.(string) + "!" })
	drop := editor.RevisorFunc(func(any) any { return nil })
	if _, err := ed.AssignGroup([]editor.Beat{beat("a"), beat("b"), beat("c")}, []editor.Revisor{upper, drop, nil}, nil); err != nil {
		t.Fatalf("AssignGroup: %v", err)
	}

	if !ed.Incoming(0, "hi") {
		t.Fatal("revised payload should be forwarded")
	}
	if ed.Incoming(1, "gone") {
		t.Fatal("revisor returning nil should drop the payload")
	}
	if ed.Incoming(2, nil) {
		t.Fatal("nil payload should be dropped")
	}
	if !ed.Incoming(2, "plain") {
		t.Fatal("unrevised payload should be forwarded")
	}
	if diff := cmp.Diff([]any{"hi!", "plain"}, out.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
	if got := ed.Stats().Ignored; got != 2 {
		t.Fatalf("Ignored = %d, want 2", got)
	}
}

func TestIncomingUndelivered(t *testing.T) {
	ed := editor.New(&sink{}, nil)
	rc := draft.NewRunningCommentary[int](nil, nil)
	b := reporter.NewBeatReporter[int](trigger.Always[int]{}, rc, false)
	mustAdd(t, ed, b, nil, nil)

	b.Process(1)
	b.Process(2)
	if rc.Len() != 2 {
		t.Fatalf("pending = %d, want 2; undelivered reports stay pending", rc.Len())
	}
	if got := ed.Stats().Undelivered; got != 2 {
		t.Fatalf("Undelivered = %d, want 2", got)
	}
}

func TestAssignGroupMismatch(t *testing.T) {
	var logs bytes.Buffer
	ed := editor.New(&sink{}, log.New(&logs, "", 0))
	ids, err := ed.AssignGroup([]editor.Beat{beat("a")}, nil, []int{0, 1})
	if err == nil || ids != nil {
		t.Fatalf("AssignGroup = %v, %v; want error", ids, err)
	}
	if ed.Len() != 0 {
		t.Fatalf("Len = %d, want 0", ed.Len())
	}
	if !strings.Contains(logs.String(), "group of 1 beats") {
		t.Fatalf("log = %q", logs.String())
	}
}

func TestAssignGroupWithIDs(t *testing.T) {
	out := &sink{deliver: true}
	ed := editor.New(out, nil)
	a, b := beat("a"), beat("b")
	ids, err := ed.AssignGroup([]editor.Beat{a, b}, nil, []int{0, 1})
	if err != nil {
		t.Fatalf("AssignGroup: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	b.Process(0)
	a.Process(0)
	if diff := cmp.Diff([]any{"b", "a"}, out.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignGroupRefusedIDsAddNothing(t *testing.T) {
	ed := editor.New(&sink{deliver: true}, nil)
	mustAdd(t, ed, beat("lead"), nil, nil)
	a, b := beat("a"), beat("b")
	ids, err := ed.AssignGroup([]editor.Beat{a, b}, nil, []int{1, 5})
	if !errors.Is(err, editor.ErrInvalidID) || ids != nil {
		t.Fatalf("AssignGroup = %v, %v; want ErrInvalidID", ids, err)
	}
	if ed.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ed.Len())
	}
	if a.State() != reporter.Unassigned || b.State() != reporter.Unassigned {
		t.Fatalf("states = %s, %s; want both unassigned", a.State(), b.State())
	}
}

func TestConcurrentBeatsShareEditor(t *testing.T) {
	const (
		workers = 8
		rounds  = 200
	)
	out := &sink{deliver: true}
	ed := editor.New(out, nil)
	lead := beat("lead")
	mustAdd(t, ed, lead, nil, nil)
	beats := make([]*reporter.BeatReporter[int], workers)
	for i := range beats {
		beats[i] = beat("w")
		mustAdd(t, ed, beats[i], nil, nil)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for _, b := range beats {
			wg.Add(1)
			go func(b *reporter.BeatReporter[int]) {
				defer wg.Done()
				for s := 0; s < rounds; s++ {
					b.Process(s)
				}
			}(b)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Dropping the lead renumbers every worker while they send.
			ed.RemoveBeat(0)
			for s := 0; s < rounds; s++ {
				id, err := ed.AddBeat(beat("churn"), nil, nil)
				if err != nil {
					t.Errorf("AddBeat: %v", err)
					return
				}
				ed.Incoming(id, "churn")
				ed.RemoveBeat(id)
			}
		}()
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("beats and editor deadlocked")
	}

	st := ed.Stats()
	if want := uint64(workers*rounds + rounds); st.Received != want {
		t.Fatalf("Received = %d, want %d", st.Received, want)
	}
	if st.Received != st.Forwarded+st.Ignored+st.Undelivered {
		t.Fatalf("counters do not add up: %+v", st)
	}
	if int(st.Forwarded) != len(out.sent) {
		t.Fatalf("Forwarded = %d, sink holds %d", st.Forwarded, len(out.sent))
	}
	if st.Beats != workers {
		t.Fatalf("Beats = %d, want %d", st.Beats, workers)
	}
	if lead.State() != reporter.Unassigned {
		t.Fatalf("lead state = %s", lead.State())
	}
}

func TestRoundupFlushesQuietBeats(t *testing.T) {
	var buf bytes.Buffer
	out := channel.NewCSVWriter(&buf, channel.CSVOptions{}, nil)
	ed := editor.New(out, nil)

	group := reporter.BuildGroupWithRunningCommentary(
		[]trigger.Trigger[int]{trigger.Always[int]{}, trigger.OnMatch(3)},
		[]func(int) any{nil, draft.Fixed[int]("hit")},
		reporter.GroupOptions[int]{KeepQuiet: []bool{true, false}, Leader: "Trial"},
	)
	if len(group) != 2 {
		t.Fatalf("group size = %d, want 2", len(group))
	}
	mustAdd(t, ed, group[0], nil, nil)
	mustAdd(t, ed, group[1], editor.Roundup(ed), nil)

	for s := 1; s <= 4; s++ {
		for _, b := range group {
			b.Process(s)
		}
	}

	if got := buf.String(); got != "Trial,1,2,3,hit\n" {
		t.Fatalf("csv = %q", got)
	}
	if diff := cmp.Diff([]any{"Trial", 4}, group[0].Message()); diff != "" {
		t.Fatalf("quiet beat mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{}, group[1].Message()); diff != "" {
		t.Fatalf("flushed beat mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseReleasesChannel(t *testing.T) {
	out := &sink{deliver: true}
	ed := editor.New(out, nil)
	b := beat("a")
	mustAdd(t, ed, b, nil, nil)

	if err := ed.Close(); err == nil {
		t.Fatal("Close should surface the channel error")
	}
	if !out.closed {
		t.Fatal("channel not closed")
	}
	if b.State() != reporter.Unassigned {
		t.Fatalf("state = %s, want unassigned", b.State())
	}
	if ed.Len() != 0 {
		t.Fatalf("Len = %d, want 0", ed.Len())
	}
}
