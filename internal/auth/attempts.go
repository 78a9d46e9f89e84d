package auth

import (
	"sync"
	"time"
)

// Lockout policy for local password login.
const (
	MaxLoginAttempts = 5
	AttemptWindow    = 15 * time.Minute
	LockoutDuration  = 15 * time.Minute
)

// AttemptStore tracks consecutive failed login attempts per normalized
// email. The in-memory implementation is process-local; behind a load
// balancer an external implementation of this interface is needed or the
// lockout can be bypassed by spreading attempts across instances.
type AttemptStore interface {
	// LockedUntil returns the lockout expiry for the email, if locked.
	LockedUntil(email string, now time.Time) (time.Time, bool)

	// RecordFailure counts a failed attempt. Attempts older than the window
	// no longer count. Returns the lockout expiry if this failure crossed
	// the threshold.
	RecordFailure(email string, now time.Time) (time.Time, bool)

	// Reset clears the counter after a successful login.
	Reset(email string)
}

type attemptEntry struct {
	count       int
	lastAttempt time.Time
	lockedUntil *time.Time
}

// MemoryAttemptStore is the process-local AttemptStore.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
}

// NewMemoryAttemptStore creates an empty attempt store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{entries: make(map[string]*attemptEntry)}
}

// LockedUntil implements AttemptStore. An elapsed lockout clears the entry.
func (s *MemoryAttemptStore) LockedUntil(email string, now time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok || e.lockedUntil == nil {
		return time.Time{}, false
	}
	if !now.Before(*e.lockedUntil) {
		delete(s.entries, email)
		return time.Time{}, false
	}
	return *e.lockedUntil, true
}

// RecordFailure implements AttemptStore.
func (s *MemoryAttemptStore) RecordFailure(email string, now time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok || now.Sub(e.lastAttempt) > AttemptWindow {
		e = &attemptEntry{}
		s.entries[email] = e
	}

	e.count++
	e.lastAttempt = now

	if e.count >= MaxLoginAttempts {
		until := now.Add(LockoutDuration)
		e.lockedUntil = &until
		return until, true
	}
	return time.Time{}, false
}

// Reset implements AttemptStore.
func (s *MemoryAttemptStore) Reset(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
}

// Sweep drops entries whose window and lockout have both elapsed. Called
// periodically by the background sweeper.
func (s *MemoryAttemptStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for email, e := range s.entries {
		stale := now.Sub(e.lastAttempt) > AttemptWindow
		if e.lockedUntil != nil && now.Before(*e.lockedUntil) {
			stale = false
		}
		if stale {
			delete(s.entries, email)
			removed++
		}
	}
	return removed
}
