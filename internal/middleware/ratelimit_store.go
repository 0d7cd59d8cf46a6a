package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type window struct {
	count int
	ends  time.Time
}

// InMemoryRateLimitStore keeps fixed windows in process memory. Use it for a
// single replica; it is safe for concurrent use.
type InMemoryRateLimitStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewInMemoryRateLimitStore returns an empty store.
func NewInMemoryRateLimitStore() *InMemoryRateLimitStore {
	return &InMemoryRateLimitStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow implements RateLimitStore.
func (s *InMemoryRateLimitStore) Allow(_ context.Context, key string, config RateLimitConfig) (bool, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	win, ok := s.windows[key]
	if !ok || !now.Before(win.ends) {
		win = &window{ends: now.Add(config.WindowDuration)}
		s.windows[key] = win
	}
	if win.count >= config.RequestsPerWindow {
		return false, 0, retryAfterSeconds(win.ends.Sub(now))
	}
	win.count++
	return true, config.RequestsPerWindow - win.count, 0
}

// Cleanup drops windows that have ended.
func (s *InMemoryRateLimitStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, win := range s.windows {
		if !now.Before(win.ends) {
			delete(s.windows, key)
		}
	}
}

// Len returns the number of tracked windows.
func (s *InMemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// StartCleanup calls Cleanup every interval until ctx is done.
func (s *InMemoryRateLimitStore) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// redisKeyPrefix namespaces the counters in a shared Redis.
const redisKeyPrefix = "kinmatch:ratelimit:"

// fixedWindowScript counts a hit, starts the window on the first one and
// returns {count, pttl}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('PTTL', KEYS[1])}
`)

// RedisRateLimitStore shares fixed windows between replicas through Redis.
// When Redis fails the request is allowed with a full budget and the failure
// is counted.
type RedisRateLimitStore struct {
	client  redis.UniversalClient
	metrics *Metrics
}

// NewRedisRateLimitStore wraps client. metrics is optional.
func NewRedisRateLimitStore(client redis.UniversalClient, metrics ...*Metrics) *RedisRateLimitStore {
	store := &RedisRateLimitStore{client: client}
	if len(metrics) > 0 {
		store.metrics = metrics[0]
	}
	return store
}

// Allow implements RateLimitStore.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	count, ttl, err := s.hit(ctx, redisKeyPrefix+key, config.WindowDuration)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncRateLimitStoreErrors()
		}
		slog.WarnContext(ctx, "rate limit store unavailable, allowing request",
			"scope", config.scope(),
			"error", err)
		return true, config.RequestsPerWindow, 0
	}

	if count <= config.RequestsPerWindow {
		return true, config.RequestsPerWindow - count, 0
	}
	if ttl <= 0 {
		ttl = config.WindowDuration
	}
	return false, 0, retryAfterSeconds(ttl)
}

func (s *RedisRateLimitStore) hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	res, err := fixedWindowScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("fixed window script returned %d values", len(res))
	}
	return int(res[0]), time.Duration(res[1]) * time.Millisecond, nil
}

// retryAfterSeconds rounds d up to whole seconds, never below 1.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}
