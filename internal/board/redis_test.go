package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"go-report-pipeline/internal/core"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	store := NewRedisStore(&redis.Options{Addr: s.Addr()}, nil)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestPutGetWatch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watch, err := store.Watch(ctx, "pilot.*")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	ver, err := store.Put(ctx, "pilot.trial", core.Event{ID: "a", Payload: "3"}, time.Minute)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ver != 1 {
		t.Fatalf("expected version 1 got %d", ver)
	}
	ev, v, err := store.Get(ctx, "pilot.trial")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ev.ID != "a" || ev.Payload != "3" || v != ver {
		t.Fatalf("unexpected event %+v or version %d", ev, v)
	}
	select {
	case upd := <-watch:
		if upd.Key != "pilot.trial" || upd.Version != 1 {
			t.Fatalf("unexpected update %+v", upd)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for watch event")
	}
}

func TestVersionsGrow(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := store.Put(ctx, "k", core.Event{ID: "x"}, 0)
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		if got != want {
			t.Fatalf("expected version %d got %d", want, got)
		}
	}
}

func TestTTLAndDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "short", core.Event{ID: "s"}, time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, _, err := store.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}

	if _, err := store.Put(ctx, "gone", core.Event{ID: "g"}, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected missing key, got %v", err)
	}
}
