package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/calhub/calendar-service-go/internal/store"
	"github.com/calhub/calendar-service-go/internal/testutil"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestMemoryCodeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("take once", func(t *testing.T) {
		s := store.NewMemoryCodeStore(time.Now)

		code, err := s.Put(ctx, "token-1", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error, err: %v", err)
		}

		got, err := s.Take(ctx, code)
		if err != nil || got != "token-1" {
			t.Fatalf("expected token-1, got %q, %v", got, err)
		}

		got, err = s.Take(ctx, code)
		if err != nil || got != "" {
			t.Fatalf("expected empty on reuse, got %q, %v", got, err)
		}
	})

	t.Run("expires", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
		s := store.NewMemoryCodeStore(clock.Now)

		code, err := s.Put(ctx, "token-1", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error, err: %v", err)
		}

		clock.Advance(time.Minute)

		got, err := s.Take(ctx, code)
		if err != nil || got != "" {
			t.Fatalf("expected expired code, got %q, %v", got, err)
		}
	})

	t.Run("sweeps expired entries on access", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
		s := store.NewMemoryCodeStore(clock.Now)

		for i := 0; i < 3; i++ {
			if _, err := s.Put(ctx, "v", time.Second); err != nil {
				t.Fatalf("unexpected error, err: %v", err)
			}
		}
		clock.Advance(2 * time.Second)
		if _, err := s.Put(ctx, "fresh", time.Minute); err != nil {
			t.Fatalf("unexpected error, err: %v", err)
		}

		if s.Len() != 1 {
			t.Fatalf("expected 1 live entry, got %d", s.Len())
		}
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		s := store.NewMemoryCodeStore(time.Now)
		if _, err := s.Put(ctx, "v", 0); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestRedisCodeStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := store.NewRedisCodeStore(client)

	code, err := s.Put(ctx, "token-1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}

	if ttl := mr.TTL(store.ExchangeCodePrefix + code); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", ttl)
	}

	got, err := s.Take(ctx, code)
	if err != nil || got != "token-1" {
		t.Fatalf("expected token-1, got %q, %v", got, err)
	}

	got, err = s.Take(ctx, code)
	if err != nil || got != "" {
		t.Fatalf("expected empty on reuse, got %q, %v", got, err)
	}

	code, err = s.Put(ctx, "token-2", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	got, err = s.Take(ctx, code)
	if err != nil || got != "" {
		t.Fatalf("expected expired code, got %q, %v", got, err)
	}
}

func TestNewCodeStoreSelectsBackend(t *testing.T) {
	dep := testutil.NewTestDependency(nil, nil, nil, nil)
	if _, ok := store.NewCodeStore(dep).(*store.MemoryCodeStore); !ok {
		t.Fatalf("expected memory store without redis")
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dep = testutil.NewTestDependency(nil, nil, client, nil)
	if _, ok := store.NewCodeStore(dep).(*store.RedisCodeStore); !ok {
		t.Fatalf("expected redis store when enabled")
	}
}
