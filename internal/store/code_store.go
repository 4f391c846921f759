package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/calhub/calendar-service-go/internal/dependency"
)

const ExchangeCodePrefix = "exchange:"

// CodeStore holds one-time exchange codes. Take returns "" once a code is used or expired.
type CodeStore interface {
	Put(ctx context.Context, value string, ttl time.Duration) (string, error)
	Take(ctx context.Context, code string) (string, error)
}

// NewCodeStore picks redis when it is enabled, memory otherwise.
func NewCodeStore(dep *dependency.Dependency) CodeStore {
	if dep.Cfg.IsRedisEnabled {
		if dep.Redis == nil {
			panic("CodeStore: redis is enabled but redis client is nil")
		}
		return NewRedisCodeStore(dep.Redis)
	}
	return NewMemoryCodeStore(time.Now)
}

func newCode() string {
	return uuid.NewString()
}

type entry struct {
	value  string
	expiry time.Time
}

type MemoryCodeStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryCodeStore(now func() time.Time) *MemoryCodeStore {
	return &MemoryCodeStore{
		entries: make(map[string]entry),
		now:     now,
	}
}

func (s *MemoryCodeStore) Put(ctx context.Context, value string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	code := newCode()
	ts := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	unSafeSweep(ts, s)
	s.entries[code] = entry{value: value, expiry: ts.Add(ttl)}

	return code, nil
}

func (s *MemoryCodeStore) Take(ctx context.Context, code string) (string, error) {
	ts := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	unSafeSweep(ts, s)

	e, ok := s.entries[code]
	if !ok {
		return "", nil
	}
	delete(s.entries, code)

	return e.value, nil
}

func (s *MemoryCodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// unSafeSweep Not thread-safe; caller must hold s.mu lock.
func unSafeSweep(ts time.Time, s *MemoryCodeStore) {
	for code, e := range s.entries {
		if !ts.Before(e.expiry) {
			delete(s.entries, code)
		}
	}
}

type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Put(ctx context.Context, value string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	code := newCode()
	if err := s.client.Set(ctx, ExchangeCodePrefix+code, value, ttl).Err(); err != nil {
		return "", fmt.Errorf("store exchange code: %w", err)
	}

	return code, nil
}

func (s *RedisCodeStore) Take(ctx context.Context, code string) (string, error) {
	value, err := s.client.GetDel(ctx, ExchangeCodePrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("take exchange code: %w", err)
	}

	return value, nil
}
