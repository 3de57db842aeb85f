package filter

import "sync"

// StrikeCounter is a process-local, non-durable per-user count of
// forbidden-content infractions. It resets on restart by design — no
// store-backed promotion is implemented for this core (see the
// multi-instance notes on durable strike promotion).
type StrikeCounter struct {
	mu     sync.Mutex
	counts map[uint]int
}

// NewStrikeCounter creates an empty counter.
func NewStrikeCounter() *StrikeCounter {
	return &StrikeCounter{counts: make(map[uint]int)}
}

// Increment bumps the user's strike count and returns the new total.
func (s *StrikeCounter) Increment(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userID]++
	return s.counts[userID]
}

// Count returns the user's current strike count without mutating it.
func (s *StrikeCounter) Count(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[userID]
}

// Reset clears a user's strike count, e.g. after a moderator action.
func (s *StrikeCounter) Reset(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, userID)
}
