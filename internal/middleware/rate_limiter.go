package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
)

// RateLimiter is a fixed-window counter per client key.
type RateLimiter struct {
	mu              sync.Mutex
	limit           int
	duration        time.Duration
	windows         map[string]*window
	lastCleanup     time.Time
	cleanupInterval time.Duration
	now             func() time.Time
}

type window struct {
	count  int
	expiry time.Time
}

func NewRateLimiter(duration time.Duration, limit int, cleanupInterval time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(duration, limit, cleanupInterval, time.Now)
}

func NewRateLimiterWithClock(duration time.Duration, limit int, cleanupInterval time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		limit:           limit,
		duration:        duration,
		windows:         make(map[string]*window),
		lastCleanup:     now(),
		cleanupInterval: cleanupInterval,
		now:             now,
	}
}

// AllowRequest reports whether clientID may proceed and, if not, how long until
// its window resets.
func (rl *RateLimiter) AllowRequest(clientID string) (bool, time.Duration) {
	ts := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ts.Sub(rl.lastCleanup) > rl.cleanupInterval {
		unSafeClearExpiredEntries(ts, rl)
		rl.lastCleanup = ts
	}

	w, exists := rl.windows[clientID]
	if !exists || ts.After(w.expiry) {
		rl.windows[clientID] = &window{count: 1, expiry: ts.Add(rl.duration)}
		return true, 0
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}

	return false, w.expiry.Sub(ts)
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		allowed, retryAfter := rl.AllowRequest(c.ClientIP())
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			_ = c.AbortWithError(429, appError.NewAppError(429, "Too many requests"))
			return
		}

		c.Next()
	}
}

// unSafeClearExpiredEntries Not thread-safe; caller must hold rl.mu lock.
func unSafeClearExpiredEntries(ts time.Time, rl *RateLimiter) {
	for clientID, w := range rl.windows {
		if ts.After(w.expiry) {
			delete(rl.windows, clientID)
		}
	}
}
