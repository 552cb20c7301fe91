package draft

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-report-pipeline/internal/core"
)

func TestAnnouncementConverts(t *testing.T) {
	a := NewAnnouncement(IntText[int])
	assert.Nil(t, a.Message())
	a.Prepare(42)
	assert.Equal(t, "42", a.Message())
	a.Ack()
	assert.Equal(t, "42", a.Message(), "ack is a no-op")
}

func TestAnnouncementDefaultsToPassthrough(t *testing.T) {
	a := NewAnnouncement[float64](nil)
	a.Prepare(2.5)
	assert.Equal(t, 2.5, a.Message())
}

func TestCommentarySavesThenRenders(t *testing.T) {
	c := NewCommentary[int](nil, nil)
	c.Prepare(7)
	assert.Equal(t, 7, c.Message())
	assert.Nil(t, c.Announcement())

	r := NewCommentary(Iterable[int], func(v any) any { return len(v.([]any)) })
	r.Prepare(3)
	assert.Equal(t, []any{3}, r.Saved())
	assert.Equal(t, 1, r.Message())
	r.ReportOut()
	assert.Equal(t, 1, r.Announcement())
}

func TestRunningCommentaryAccumulatesAndFlushes(t *testing.T) {
	c := NewRunningCommentary[int](nil, nil)
	for i := 1; i <= 4; i++ {
		c.Prepare(i * 10)
	}
	if diff := cmp.Diff([]any{10, 20, 30, 40}, c.Message()); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}

	c.Ack()
	require.Equal(t, 0, c.Len())
	c.Prepare(99)
	assert.Equal(t, []any{99}, c.Message())
}

func TestRunningCommentaryMessageIsACopy(t *testing.T) {
	c := NewRunningCommentary[string](nil, nil)
	c.Prepare("a")
	first := c.Message().([]any)
	c.Ack()
	c.Prepare("b")
	assert.Equal(t, []any{"a"}, first)
}

func TestRunningCommentaryLeader(t *testing.T) {
	c := NewRunningCommentary(Fixed[bool]("-"), nil).WithLeader("Piece")
	assert.Equal(t, []any{"Piece"}, c.Message())
	c.Prepare(true)
	c.Prepare(true)
	assert.Equal(t, []any{"Piece", "-", "-"}, c.Message())
}

func TestRunningCommentaryRender(t *testing.T) {
	c := NewRunningCommentary(Sprint[int], func(v any) any { return len(v.([]any)) })
	c.Prepare(1)
	c.Prepare(2)
	c.ReportOut()
	assert.Equal(t, 2, c.Announcement())
}

func TestCounter(t *testing.T) {
	cnt := NewCounter(1)
	count := Count[bool](cnt)
	total := CountReset[bool](cnt)
	assert.Equal(t, 1, count(true))
	assert.Equal(t, 2, count(true))
	assert.Equal(t, 3, count(true))
	assert.Equal(t, 3, total(false))
	assert.Equal(t, 1, count(true))
}

func TestClockConverters(t *testing.T) {
	at := time.Date(2024, 5, 23, 9, 30, 15, 250e6, time.UTC)
	clk := core.FixedClock(at)
	assert.Equal(t, "09:30:15.250", TimeOf[int](clk)(0))
	assert.Equal(t, "2024-05-23 09:30:15", DateOf[int](clk)(0))
}

func TestTextConverters(t *testing.T) {
	assert.Equal(t, "3.14", FormatFloat[float64]("%.2f")(3.14159))
	assert.Equal(t, "fixed", Fixed[int]("fixed")(5))
	assert.Equal(t, "true", Sprint(true))
	assert.Equal(t, []any{"x"}, Iterable("x"))
}
