package limiters

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	MaxAttempts  int
	LockDuration time.Duration
	MaxEntries   int

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

type attemptEntry struct {
	count       int
	writtenAt   time.Time
	lockedUntil time.Time
}

type attemptShard struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
}

// AttemptTracker counts consecutive login failures per key and locks the key
// once the failure budget is exhausted.
type AttemptTracker struct {
	cfg         Config
	now         func() time.Time
	maxPerShard int
	shards      [shardCount]attemptShard
}

// NewAttemptTracker describes the newattempttracker operation and its observable behavior.
//
// NewAttemptTracker may return an error when input validation, dependency calls, or security checks fail.
// NewAttemptTracker does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewAttemptTracker(cfg Config) (*AttemptTracker, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("MaxAttempts must be > 0")
	}
	if cfg.LockDuration <= 0 {
		return nil, errors.New("LockDuration must be > 0")
	}
	if cfg.MaxEntries <= 0 {
		return nil, errors.New("MaxEntries must be > 0")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	maxPerShard := cfg.MaxEntries / shardCount
	if maxPerShard < 1 {
		maxPerShard = 1
	}

	t := &AttemptTracker{cfg: cfg, now: now, maxPerShard: maxPerShard}
	for i := range t.shards {
		t.shards[i].entries = make(map[string]*attemptEntry)
	}

	return t, nil
}

// RecordFailure registers one failed attempt for key. Reaching MaxAttempts
// sets the lock deadline.
func (t *AttemptTracker) RecordFailure(key string) {
	now := t.now()
	s := t.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key]
	if e == nil || t.expired(e, now) {
		e = &attemptEntry{}
		s.entries[key] = e
	}

	e.count++
	e.writtenAt = now
	if e.count >= t.cfg.MaxAttempts {
		e.lockedUntil = now.Add(t.cfg.LockDuration)
	}

	t.evictLocked(s, key)
}

// RecordSuccess clears all failure state for key.
func (t *AttemptTracker) RecordSuccess(key string) {
	s := t.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// IsLocked reports whether key is currently locked out. An expired lock is
// cleared on the spot together with its counter.
func (t *AttemptTracker) IsLocked(key string) bool {
	now := t.now()
	s := t.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key]
	if e == nil {
		return false
	}
	if t.expired(e, now) {
		delete(s.entries, key)
		return false
	}
	if e.lockedUntil.IsZero() {
		return false
	}
	if !e.lockedUntil.After(now) {
		delete(s.entries, key)
		return false
	}

	return true
}

// RemainingLock returns the whole seconds until the lock on key expires, or
// 0 when key is not locked.
func (t *AttemptTracker) RemainingLock(key string) int64 {
	now := t.now()
	s := t.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key]
	if e == nil || t.expired(e, now) || e.lockedUntil.IsZero() || !e.lockedUntil.After(now) {
		return 0
	}

	remaining := int64(e.lockedUntil.Sub(now) / time.Second)
	if remaining < 1 {
		remaining = 1
	}
	return remaining
}

// RemainingAttempts returns how many more failures key can absorb before
// locking. Unknown keys report the full budget.
func (t *AttemptTracker) RemainingAttempts(key string) int {
	now := t.now()
	s := t.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key]
	if e == nil || t.expired(e, now) {
		return t.cfg.MaxAttempts
	}

	remaining := t.cfg.MaxAttempts - e.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (t *AttemptTracker) expired(e *attemptEntry, now time.Time) bool {
	return now.Sub(e.writtenAt) >= t.cfg.LockDuration
}

// evictLocked drops expired entries first, then the oldest-written entry,
// until the shard is back under its cap. Caller holds the shard lock.
// keep is never evicted.
func (t *AttemptTracker) evictLocked(s *attemptShard, keep string) {
	if len(s.entries) <= t.maxPerShard {
		return
	}

	now := t.now()
	for k, e := range s.entries {
		if k != keep && t.expired(e, now) {
			delete(s.entries, k)
		}
	}

	for len(s.entries) > t.maxPerShard {
		oldestKey := ""
		var oldest time.Time
		for k, e := range s.entries {
			if k == keep {
				continue
			}
			if oldestKey == "" || e.writtenAt.Before(oldest) {
				oldestKey = k
				oldest = e.writtenAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(s.entries, oldestKey)
	}
}

func (t *AttemptTracker) shard(key string) *attemptShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &t.shards[h.Sum32()%shardCount]
}
