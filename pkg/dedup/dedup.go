// Package dedup suppresses repeated event ids across detector polls.
// Detectors re-emit an ongoing condition every pass; the push services
// use this set so subscribers see each event id once per TTL window.
package dedup

import (
	"sync"
	"time"
)

type Set struct {
	mu   sync.Mutex
	ttl  time.Duration
	cap  int
	seen map[string]time.Time
	now  func() time.Time
}

// New builds a dedup set. Non-positive arguments fall back to a 10
// minute TTL and 10000 tracked ids.
func New(ttl time.Duration, capacity int) *Set {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if capacity <= 0 {
		capacity = 10000
	}
	return &Set{
		ttl:  ttl,
		cap:  capacity,
		seen: make(map[string]time.Time, capacity),
		now:  time.Now,
	}
}

// FirstSeen reports whether id has not been seen within the TTL and
// marks it seen. An empty id is never suppressed.
func (s *Set) FirstSeen(id string) bool {
	if id == "" {
		return true
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.seen[id]; ok && now.Before(expiry) {
		return false
	}
	s.seen[id] = now.Add(s.ttl)

	if len(s.seen) > s.cap {
		s.evict(now)
	}
	return true
}

// Len reports the number of tracked ids, expired entries included.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// evict drops expired entries; caller holds the lock.
func (s *Set) evict(now time.Time) {
	for id, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, id)
		}
	}
}
