package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"go-report-pipeline/internal/core"
)

func newTestBus(t *testing.T) *RedisBus {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	bus := NewRedisBus(&redis.Options{Addr: s.Addr()}, nil)
	t.Cleanup(func() { bus.Close() })
	return bus
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "desk.pilot")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ev := core.Event{ID: "1", Source: "pilot", Seq: 3, Timestamp: time.Now(), Payload: "rising"}
	if err := bus.Publish(ctx, "desk.pilot", ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case got := <-ch:
		if got.ID != ev.ID || got.Seq != 3 || got.Payload != "rising" {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPayloadSequenceSurvivesJSON(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "rows")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Publish(ctx, "rows", core.Event{ID: "2", Payload: []any{"Trial", 1}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case got := <-ch:
		row, ok := got.Payload.([]any)
		if !ok || len(row) != 2 || row[0] != "Trial" || row[1] != float64(1) {
			t.Fatalf("unexpected payload %#v", got.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for row")
	}
}

func TestUnsubscribeClosesStream(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	ch, err := bus.Subscribe(ctx, "gone")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Unsubscribe(ctx, "gone"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed stream")
		}
	case <-time.After(time.Second):
		t.Fatal("stream not closed")
	}
	if err := bus.Unsubscribe(ctx, "never-subscribed"); err != nil {
		t.Fatalf("unknown topic: %v", err)
	}
}
