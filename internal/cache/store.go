// Package cache provides a TTL + capacity-bounded in-memory store used for
// fetch memoization and throttle markers.
package cache

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	// HardCap is the maximum entry count immediately after any Set.
	HardCap = 100
	// SoftCap is the target size Cleanup shrinks toward.
	SoftCap = 80
	// evictBatch is how many low-hit entries a capacity cleanup removes.
	evictBatch = 20
)

type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
	hits      int64
}

// Stats reports a point-in-time view of the store.
type Stats struct {
	Size      int     `json:"size"`
	TotalHits int64   `json:"total_hits"`
	Expired   int     `json:"expired"`
	HitRate   float64 `json:"hit_rate"`
}

// Store is a string-keyed TTL cache with hit-count eviction. Entries are
// advisory: losing one never changes a result, only costs a refetch.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	now     func() time.Time

	sweepOnce sync.Once
	done      chan struct{}
}

func NewStore[V any]() *Store[V] {
	return &Store[V]{
		entries: make(map[string]*entry[V]),
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Set stores value under key with the given TTL and a zero hit counter.
// If the insert pushes the store past the hard cap, Cleanup runs
// synchronously before Set returns.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = &entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	if len(s.entries) > HardCap {
		s.cleanupLocked()
	}
}

// Get returns the value and bumps its hit counter while unexpired.
// An expired entry is evicted on access and reported as a miss.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return zero, false
	}
	e.hits++
	return e.value, true
}

// Delete removes an entry regardless of TTL.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Cleanup removes expired entries, then if the store is still above the
// soft cap evicts the lowest-hit entries regardless of remaining TTL.
// Ties break stably by key order.
func (s *Store[V]) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
}

func (s *Store[V]) cleanupLocked() {
	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}

	if len(s.entries) > SoftCap {
		keys := make([]string, 0, len(s.entries))
		for k := range s.entries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			hi, hj := s.entries[keys[i]].hits, s.entries[keys[j]].hits
			if hi != hj {
				return hi < hj
			}
			return keys[i] < keys[j]
		})
		evict := evictBatch
		if evict > len(keys) {
			evict = len(keys)
		}
		for _, k := range keys[:evict] {
			delete(s.entries, k)
		}
		removed += evict
	}

	if removed > 0 {
		slog.Debug("cache cleanup", "removed", removed, "size", len(s.entries))
	}
}

// Stats reports size, total hits, expired-but-unswept count, and hit rate.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var hits int64
	expired := 0
	for _, e := range s.entries {
		hits += e.hits
		if !now.Before(e.expiresAt) {
			expired++
		}
	}
	size := len(s.entries)
	denom := size
	if denom < 1 {
		denom = 1
	}
	return Stats{
		Size:      size,
		TotalHits: hits,
		Expired:   expired,
		HitRate:   float64(hits) / float64(denom),
	}
}

// Len reports the current entry count.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper launches a background ticker that runs Cleanup on a fixed
// interval, so entries that are never looked up again still get swept.
// It may be started at most once; Stop ends it.
func (s *Store[V]) StartSweeper(interval time.Duration) {
	s.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.Cleanup()
				case <-s.done:
					return
				}
			}
		}()
	})
}

// Stop terminates the sweeper goroutine if one is running.
func (s *Store[V]) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
