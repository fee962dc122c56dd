package oauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/idlink/internal/cache"
)

func newTestStore() *StateStore {
	return NewStateStore(cache.NewMemory("test", 0))
}

func TestStateStore_SingleUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if err := s.Put(ctx, "st", "ver", DefaultStateTTL); err != nil {
		t.Fatalf("Put err: %v", err)
	}
	if ok, _ := s.Has(ctx, "st"); !ok {
		t.Fatal("Has = false before consume")
	}
	if ok, _ := s.Has(ctx, "st"); !ok {
		t.Fatal("Has must not consume")
	}

	v, err := s.PeekConsume(ctx, "st")
	if err != nil || v != "ver" {
		t.Fatalf("PeekConsume = %q, %v", v, err)
	}
	if _, err := s.PeekConsume(ctx, "st"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("second PeekConsume err = %v; want ErrStateNotFound", err)
	}
	if ok, _ := s.Has(ctx, "st"); ok {
		t.Fatal("Has = true after consume")
	}
}

func TestStateStore_ZeroTTLIsExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if err := s.Put(ctx, "st", "ver", 0); err != nil {
		t.Fatalf("Put err: %v", err)
	}
	if ok, _ := s.Has(ctx, "st"); ok {
		t.Fatal("Has = true for TTL=0")
	}
	if _, err := s.PeekConsume(ctx, "st"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("PeekConsume err = %v; want ErrStateNotFound", err)
	}
}

func TestStateStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_ = s.Put(ctx, "st", "ver", 2*time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if ok, _ := s.Has(ctx, "st"); ok {
		t.Fatal("Has = true after TTL")
	}
	if _, err := s.PeekConsume(ctx, "st"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("PeekConsume err = %v", err)
	}
}

func TestStateStore_Purge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	_ = s.Put(ctx, "a", "1", time.Minute)
	_ = s.Put(ctx, "b", "2", time.Minute)

	n, err := s.Purge(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Purge = %d, %v; want 2, nil", n, err)
	}
	if ok, _ := s.Has(ctx, "a"); ok {
		t.Fatal("state survived purge")
	}
}
