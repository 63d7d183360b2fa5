package rate

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

// Policy defines a public type used by authgate APIs.
//
// Policy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Policy struct {
	Capacity int
	Window   time.Duration
}

// Result reports the outcome of a single consume.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	MaxKeys int

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

type bucket struct {
	tokens     float64
	capacity   int
	refillRate float64 // tokens per second
	lastRefill time.Time
}

type bucketShard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Limiter defines a public type used by authgate APIs.
//
// Limiter instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Limiter struct {
	now         func() time.Time
	maxPerShard int
	shards      [shardCount]bucketShard
}

// NewLimiter describes the newlimiter operation and its observable behavior.
//
// NewLimiter may return an error when input validation, dependency calls, or security checks fail.
// NewLimiter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewLimiter(cfg Config) (*Limiter, error) {
	if cfg.MaxKeys <= 0 {
		return nil, errors.New("MaxKeys must be > 0")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	maxPerShard := cfg.MaxKeys / shardCount
	if maxPerShard < 1 {
		maxPerShard = 1
	}

	l := &Limiter{now: now, maxPerShard: maxPerShard}
	for i := range l.shards {
		l.shards[i].buckets = make(map[string]*bucket)
	}

	return l, nil
}

// Consume takes one token from key's bucket under p, creating the bucket
// full on first sight. A rejected consume reports how long until a token is
// available and leaves the bucket untouched.
func (l *Limiter) Consume(key string, p Policy) Result {
	if p.Capacity <= 0 || p.Window <= 0 {
		return Result{Allowed: false, RetryAfter: time.Second}
	}

	now := l.now()
	s := l.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[key]
	if b == nil || b.capacity != p.Capacity {
		b = &bucket{
			tokens:     float64(p.Capacity),
			capacity:   p.Capacity,
			refillRate: float64(p.Capacity) / p.Window.Seconds(),
			lastRefill: now,
		}
		s.buckets[key] = b
		l.evictLocked(s, key, now)
	}

	b.refill(now)

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
		if wait < time.Second {
			wait = time.Second
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: wait}
	}

	b.tokens--

	return Result{Allowed: true, Remaining: int(b.tokens)}
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	b.tokens += elapsed * b.refillRate
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
	b.lastRefill = now
}

// evictLocked drops full (idle) buckets first, then the least recently
// refilled, until the shard is back under its cap. Caller holds the shard
// lock. keep is never evicted.
func (l *Limiter) evictLocked(s *bucketShard, keep string, now time.Time) {
	if len(s.buckets) <= l.maxPerShard {
		return
	}

	for k, b := range s.buckets {
		if k == keep {
			continue
		}
		b.refill(now)
		if b.tokens >= float64(b.capacity) {
			delete(s.buckets, k)
		}
	}

	for len(s.buckets) > l.maxPerShard {
		oldestKey := ""
		var oldest time.Time
		for k, b := range s.buckets {
			if k == keep {
				continue
			}
			if oldestKey == "" || b.lastRefill.Before(oldest) {
				oldestKey = k
				oldest = b.lastRefill
			}
		}
		if oldestKey == "" {
			return
		}
		delete(s.buckets, oldestKey)
	}
}

func (l *Limiter) shard(key string) *bucketShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}
