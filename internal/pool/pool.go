// Package pool implements the in-memory opportunistic matching set used by
// free-tier users: an unordered set of user ids currently seeking a partner.
package pool

import (
	"math/rand/v2"
	"sync"
)

// Pool is a thread-safe set of user ids awaiting an opportunistic match.
// Add, Remove, Contains and Len are O(1) expected; Snapshot and
// RandomMemberExcluding copy the membership into a slice and are O(n).
type Pool struct {
	mu      sync.Mutex
	members map[uint]struct{}
}

// New creates an empty Pool.
func New() *Pool {
	return &Pool{members: make(map[uint]struct{})}
}

// Add inserts userID into the pool. Idempotent.
func (p *Pool) Add(userID uint) {
	p.mu.Lock()
	p.members[userID] = struct{}{}
	p.mu.Unlock()
}

// Remove evicts userID from the pool. Idempotent; a no-op if absent.
func (p *Pool) Remove(userID uint) {
	p.mu.Lock()
	delete(p.members, userID)
	p.mu.Unlock()
}

// Contains reports whether userID is currently in the pool.
func (p *Pool) Contains(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.members[userID]
	return ok
}

// Snapshot returns a copy of the current pool membership, in Go's
// unspecified (effectively random per process) map iteration order.
func (p *Pool) Snapshot() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint, 0, len(p.members))
	for uid := range p.members {
		out = append(out, uid)
	}
	return out
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

// RandomMemberExcluding returns a uniformly random member other than
// excluding, and true, or (0, false) if no eligible member exists. The
// caller owns removing the returned member once a match is sealed.
func (p *Pool) RandomMemberExcluding(excluding uint) (uint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := make([]uint, 0, len(p.members))
	for uid := range p.members {
		if uid != excluding {
			candidates = append(candidates, uid)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[rand.IntN(len(candidates))], true
}
