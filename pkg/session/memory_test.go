package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore(WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	data := []byte(`{"token":"abc"}`)
	if err := store.Save(ctx, "s1", data, clock.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data[2] = 'X'

	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"token":"abc"}` {
		t.Fatalf("Load = %s, stored copy was mutated", got)
	}

	got, err = store.Load(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("Load(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore(WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	_ = store.Save(ctx, "s1", []byte("a"), clock.Now().Add(time.Minute))
	_ = store.Save(ctx, "s2", []byte("b"), clock.Now().Add(time.Minute))

	if err := store.Touch(ctx, "s2", clock.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	clock.Advance(2 * time.Minute)

	if got, _ := store.Load(ctx, "s1"); got != nil {
		t.Fatalf("expired session still loadable: %s", got)
	}
	if got, _ := store.Load(ctx, "s2"); string(got) != "b" {
		t.Fatalf("touched session lost: %q", got)
	}

	store.sweep()
	if n := store.Len(); n != 1 {
		t.Fatalf("Len after sweep = %d, want 1", n)
	}
}

func TestMemoryStoreDeleteAndClose(t *testing.T) {
	store := NewMemoryStore(WithSweepInterval(time.Hour))
	ctx := context.Background()

	_ = store.Save(ctx, "s1", []byte("a"), time.Now().Add(time.Minute))
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	var closed ErrStoreClosed
	if err := store.Save(ctx, "s1", nil, time.Now()); !errors.As(err, &closed) {
		t.Fatalf("Save after Close = %v, want ErrStoreClosed", err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.As(err, &closed) {
		t.Fatalf("Load after Close = %v, want ErrStoreClosed", err)
	}
}
