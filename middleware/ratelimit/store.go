package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result reports the state of a window counter after an increment.
type Result struct {
	TotalHits int
	Remaining time.Duration
}

// Store is a window counter keyed by policy prefix plus identity. Increments
// within a live window accumulate; the first increment of a window arms the
// window's expiry.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (Result, error)
	// Decrement refunds one hit, used by policies that only count failed
	// requests.
	Decrement(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Increment is a single atomic round trip: INCR and TTL are pipelined so
// concurrent requests from the same identity never lose updates.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Result, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	count := int(incr.Val())
	remaining := ttl.Val()

	// First hit of a window (or a counter left without expiry by a crash
	// between INCR and EXPIRE) arms the window TTL.
	if count == 1 || remaining < 0 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return Result{}, err
		}
		remaining = window
	}

	return Result{TotalHits: count, Remaining: remaining}, nil
}

// Decrement may briefly drive a counter negative when the window expires
// between the request's increment and this refund; the next Increment
// re-arms the TTL, so the counter self-heals.
func (s *RedisStore) Decrement(ctx context.Context, key string) error {
	return s.client.Decr(ctx, key).Err()
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryStore backs tests and single-node deployments.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]*entry
}

type entry struct {
	count     int
	resetTime time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*entry),
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if e, exists := s.data[key]; exists && now.Before(e.resetTime) {
		e.count++
		return Result{TotalHits: e.count, Remaining: e.resetTime.Sub(now)}, nil
	}

	s.data[key] = &entry{
		count:     1,
		resetTime: now.Add(window),
	}

	return Result{TotalHits: 1, Remaining: window}, nil
}

func (s *MemoryStore) Decrement(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.data[key]; exists && time.Now().Before(e.resetTime) && e.count > 0 {
		e.count--
	}

	return nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
