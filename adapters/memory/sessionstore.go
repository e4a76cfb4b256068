// Package memory provides in-memory, expiring stores.
package memory

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artpar/plancart/adapters/clock"
	"github.com/artpar/plancart/ports"
)

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// sessionShard is a single shard of the session store.
type sessionShard[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
}

// SessionStore is a sharded in-memory store of per-visitor state.
// Entries idle for longer than the TTL are removed by a background sweep
// and are never returned by Get once expired.
type SessionStore[T any] struct {
	shards  []*sessionShard[T]
	clock   ports.Clock
	ttl     atomic.Int64 // nanoseconds
	onEvict func(id string, v T)
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// SessionStoreConfig configures the session store.
type SessionStoreConfig[T any] struct {
	NumShards       int           // Number of shards (default: 16)
	TTL             time.Duration // Idle time before eviction (default: 30m)
	CleanupInterval time.Duration // How often to sweep (default: 1m)
	Clock           ports.Clock   // Time source (default: wall clock)
	OnEvict         func(id string, v T)
}

// NewSessionStore creates a session store and starts its cleanup sweep.
func NewSessionStore[T any](cfg SessionStoreConfig[T]) *SessionStore[T] {
	if cfg.NumShards <= 0 {
		cfg.NumShards = 16
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}

	s := &SessionStore[T]{
		shards:  make([]*sessionShard[T], cfg.NumShards),
		clock:   cfg.Clock,
		onEvict: cfg.OnEvict,
		done:    make(chan struct{}),
	}
	s.ttl.Store(int64(cfg.TTL))
	for i := range s.shards {
		s.shards[i] = &sessionShard[T]{entries: make(map[string]*entry[T])}
	}

	s.cleanup = time.NewTicker(cfg.CleanupInterval)
	go s.cleanupLoop()

	return s
}

func (s *SessionStore[T]) getShard(id string) *sessionShard[T] {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get returns the value stored under id and refreshes its expiry.
func (s *SessionStore[T]) Get(id string) (T, bool) {
	shard := s.getShard(id)
	now := s.clock.Now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	e, ok := shard.entries[id]
	if !ok || s.expired(e, now) {
		var zero T
		return zero, false
	}
	e.lastSeen = now
	return e.value, true
}

// Put stores or replaces the value under id.
func (s *SessionStore[T]) Put(id string, v T) {
	shard := s.getShard(id)
	now := s.clock.Now()

	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.entries[id] = &entry[T]{value: v, lastSeen: now}
}

// Delete removes the value under id.
func (s *SessionStore[T]) Delete(id string) {
	shard := s.getShard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.entries, id)
}

// Len returns the number of live entries.
func (s *SessionStore[T]) Len() int {
	now := s.clock.Now()
	n := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, e := range shard.entries {
			if !s.expired(e, now) {
				n++
			}
		}
		shard.mu.RUnlock()
	}
	return n
}

// SetTTL changes the idle timeout. It applies to existing entries too.
func (s *SessionStore[T]) SetTTL(d time.Duration) {
	if d > 0 {
		s.ttl.Store(int64(d))
	}
}

// TTL returns the idle timeout.
func (s *SessionStore[T]) TTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

func (s *SessionStore[T]) expired(e *entry[T], now time.Time) bool {
	return now.Sub(e.lastSeen) > s.TTL()
}

// cleanupLoop periodically removes expired entries.
func (s *SessionStore[T]) cleanupLoop() {
	for {
		select {
		case <-s.cleanup.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}

// Sweep removes expired entries and returns how many were removed.
func (s *SessionStore[T]) Sweep() int {
	now := s.clock.Now()
	removed := 0

	for _, shard := range s.shards {
		var evicted []*entry[T]
		var ids []string

		shard.mu.Lock()
		for id, e := range shard.entries {
			if s.expired(e, now) {
				delete(shard.entries, id)
				evicted = append(evicted, e)
				ids = append(ids, id)
			}
		}
		shard.mu.Unlock()

		removed += len(evicted)
		if s.onEvict != nil {
			for i, e := range evicted {
				s.onEvict(ids[i], e.value)
			}
		}
	}
	return removed
}

// Close stops the cleanup goroutine.
func (s *SessionStore[T]) Close() error {
	s.once.Do(func() {
		s.cleanup.Stop()
		close(s.done)
	})
	return nil
}

// Ensure interface compliance.
var _ ports.SessionStore[int] = (*SessionStore[int])(nil)
