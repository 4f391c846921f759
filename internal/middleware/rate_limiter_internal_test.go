package middleware

import (
	"testing"
	"time"
)

type fakeClock struct {
	ts time.Time
}

func (f *fakeClock) now() time.Time { return f.ts }

func (f *fakeClock) advance(d time.Duration) { f.ts = f.ts.Add(d) }

func TestAllowRequestCleansExpiredEntriesAtInterval(t *testing.T) {
	clock := &fakeClock{ts: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(10*time.Second, 1, 5*time.Second, clock.now)

	rl.windows["old"] = &window{count: 2, expiry: clock.ts.Add(-time.Second)}
	clock.advance(6 * time.Second)

	_, _ = rl.AllowRequest("new-client")

	if _, exists := rl.windows["old"]; exists {
		t.Fatalf("expected expired window to be removed during cleanup")
	}
}

func TestUnsafeClearExpiredEntriesRemovesOnlyExpired(t *testing.T) {
	clock := &fakeClock{ts: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(10*time.Second, 1, time.Minute, clock.now)

	rl.windows["expired"] = &window{count: 1, expiry: clock.ts.Add(-time.Second)}
	rl.windows["active"] = &window{count: 1, expiry: clock.ts.Add(time.Second)}

	unSafeClearExpiredEntries(clock.ts, rl)

	if _, exists := rl.windows["expired"]; exists {
		t.Fatalf("expected expired window to be removed")
	}
	if _, exists := rl.windows["active"]; !exists {
		t.Fatalf("expected active window to remain")
	}
}

func TestAllowRequestResetsAfterWindow(t *testing.T) {
	clock := &fakeClock{ts: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiterWithClock(30*time.Second, 2, time.Minute, clock.now)

	clientID := "client-1"

	if ok, _ := rl.AllowRequest(clientID); !ok {
		t.Fatalf("expected first request to pass")
	}
	if ok, _ := rl.AllowRequest(clientID); !ok {
		t.Fatalf("expected second request to pass within window")
	}

	clock.advance(10 * time.Second)
	ok, retryAfter := rl.AllowRequest(clientID)
	if ok {
		t.Fatalf("expected third request to be blocked within window")
	}
	if retryAfter != 20*time.Second {
		t.Fatalf("expected retry after 20s, got %v", retryAfter)
	}

	clock.advance(21 * time.Second)
	if ok, _ := rl.AllowRequest(clientID); !ok {
		t.Fatalf("expected requests to be allowed after window resets")
	}
}
