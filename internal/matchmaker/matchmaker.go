// Package matchmaker implements the pairing state machine: an opportunistic
// pool for free users and a filtered, persistent queue for premium users.
package matchmaker

import (
	"context"

	"anonrelay/internal/featureflags"
	"anonrelay/internal/models"
	"anonrelay/internal/observability"
	"anonrelay/internal/pool"
	"anonrelay/internal/presence"
	"anonrelay/internal/queue"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"
)

// advancedMatchingFlag gates the filtered/premium path behind a rollout
// flag so operators can disable it without a redeploy (spec §4.5 note).
const advancedMatchingFlag = "advanced_matching"

// Outcome tags the result of a Find call.
type Outcome int

const (
	// AlreadyInRoom means the user already holds an active room binding.
	AlreadyInRoom Outcome = iota
	// AlreadySearching means the user is already in Pool or Queue.
	AlreadySearching
	// Matched means a partner was found and a room was sealed.
	Matched
	// Searching means the user was inserted into the opportunistic pool.
	Searching
	// Queued means the user was inserted into the durable premium queue.
	Queued
	// Blocked means the caller is blocked or not currently online and was
	// refused pool/queue insertion (spec §3 PoolEntry invariant).
	Blocked
)

// Result is returned by Find.
type Result struct {
	Outcome Outcome
	Room    *models.Room
	Partner uint
}

// Matchmaker implements the tiered pairing algorithm described in §4.5.
type Matchmaker struct {
	pool     *pool.Pool
	queue    *queue.Queue
	rooms    *roommgr.RoomMgr
	users    repository.UserRepository
	flags    *featureflags.Manager
	presence *presence.Tracker
}

// New creates a Matchmaker wired to its collaborators. presence is the
// live online/offline source read for pool eligibility (spec §5); it is
// never touched for blocked-status, which comes straight off the user
// record.
func New(p *pool.Pool, q *queue.Queue, rooms *roommgr.RoomMgr, users repository.UserRepository, flags *featureflags.Manager, pr *presence.Tracker) *Matchmaker {
	return &Matchmaker{pool: p, queue: q, rooms: rooms, users: users, flags: flags, presence: pr}
}

// Find runs the matchmaking state machine for userID using filters as a
// transient override of the user's saved matching_preferences (empty
// means "use the saved default").
func (m *Matchmaker) Find(ctx context.Context, userID uint, filters models.MatchFilters) (Result, error) {
	if room, err := m.rooms.GetActiveRoom(ctx, userID); err != nil {
		return Result{}, err
	} else if room != nil {
		return Result{Outcome: AlreadyInRoom, Room: room, Partner: room.PartnerOf(userID)}, nil
	}

	if m.pool.Contains(userID) {
		return Result{Outcome: AlreadySearching}, nil
	}
	if queued, err := m.queue.Contains(ctx, userID); err != nil {
		return Result{}, err
	} else if queued {
		return Result{Outcome: AlreadySearching}, nil
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if !user.IsEligibleForPool(m.presence.IsOnline(ctx, userID)) {
		return Result{Outcome: Blocked}, nil
	}
	if filters.Empty() {
		filters = user.MatchFilters
	}

	useAdvanced := user.IsPremium && !filters.Empty() && m.flags.Enabled(advancedMatchingFlag, userID)
	if useAdvanced {
		return m.advanced(ctx, userID, filters)
	}
	return m.simple(ctx, userID)
}

// eligible reports whether uid may currently be matched as a partner:
// fetched, not blocked, and online per the presence tracker. Ineligible
// pool members are dropped by the caller so stale entries do not linger.
func (m *Matchmaker) eligible(ctx context.Context, uid uint) (*models.User, bool) {
	user, err := m.users.GetByID(ctx, uid)
	if err != nil {
		return nil, false
	}
	if !user.IsEligibleForPool(m.presence.IsOnline(ctx, uid)) {
		return nil, false
	}
	return user, true
}

// Cancel withdraws userID from both Pool and Queue. It is idempotent —
// removing an absent member is a no-op in both collections (spec §5
// at-most-once cancellation semantics).
func (m *Matchmaker) Cancel(ctx context.Context, userID uint) error {
	m.pool.Remove(userID)
	return m.queue.Remove(ctx, userID)
}

// simple implements the free-tier path: any eligible pool member is an
// acceptable partner.
func (m *Matchmaker) simple(ctx context.Context, userID uint) (Result, error) {
	for {
		candidate, ok := m.pool.RandomMemberExcluding(userID)
		if !ok {
			m.pool.Add(userID)
			return Result{Outcome: Searching}, nil
		}
		if _, ok := m.eligible(ctx, candidate); !ok {
			// Candidate went offline or got blocked since joining the pool;
			// drop the stale entry and keep looking.
			m.pool.Remove(candidate)
			continue
		}

		room, err := m.rooms.CreateRoom(ctx, userID, candidate)
		if err != nil {
			if models.IsConflict(err) {
				// Candidate was already claimed elsewhere between the pick
				// and the seal attempt; drop it and retry with another.
				m.pool.Remove(candidate)
				continue
			}
			return Result{}, err
		}
		m.pool.Remove(candidate)
		observability.MatchesSealedTotal.WithLabelValues("simple").Inc()
		return Result{Outcome: Matched, Room: room, Partner: candidate}, nil
	}
}

// advanced implements the premium/filtered path: queue hit, then pool
// scan against the caller's filters, then fall back to queueing self.
func (m *Matchmaker) advanced(ctx context.Context, userID uint, filters models.MatchFilters) (Result, error) {
	self := models.UserAttributes{UserID: userID}
	if user, err := m.users.GetByID(ctx, userID); err == nil {
		self = user.Attributes()
	}

	if entry, err := m.queue.ScanForMatch(ctx, self); err != nil {
		return Result{}, err
	} else if entry != nil {
		room, err := m.rooms.CreateRoom(ctx, userID, entry.UserID)
		if err != nil {
			if models.IsConflict(err) {
				_ = m.queue.Remove(ctx, entry.UserID)
			} else {
				return Result{}, err
			}
		} else {
			_ = m.queue.Remove(ctx, entry.UserID)
			observability.MatchesSealedTotal.WithLabelValues("advanced_queue").Inc()
			return Result{Outcome: Matched, Room: room, Partner: entry.UserID}, nil
		}
	}

	if candidate, ok := m.scanPoolForFilters(ctx, userID, filters); ok {
		room, err := m.rooms.CreateRoom(ctx, userID, candidate)
		if err != nil {
			if !models.IsConflict(err) {
				return Result{}, err
			}
			m.pool.Remove(candidate)
		} else {
			m.pool.Remove(candidate)
			observability.MatchesSealedTotal.WithLabelValues("advanced_pool").Inc()
			return Result{Outcome: Matched, Room: room, Partner: candidate}, nil
		}
	}

	if err := m.queue.Upsert(ctx, userID, filters); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Queued}, nil
}

// scanPoolForFilters returns the first pool member satisfying filters, in
// the pool's natural (map) iteration order — acceptable per §4.5's "first
// satisfying candidate encountered" tie-break since Go's map order is
// already unspecified/effectively random per process. Candidates that
// cannot be fetched, are blocked, or are offline are dropped from the pool
// and skipped. Bindings are not checked here: a candidate bound elsewhere
// mid-scan surfaces as a Conflict from CreateRoom in advanced.
func (m *Matchmaker) scanPoolForFilters(ctx context.Context, self uint, filters models.MatchFilters) (uint, bool) {
	for _, uid := range m.pool.Snapshot() {
		if uid == self {
			continue
		}
		candidate, ok := m.eligible(ctx, uid)
		if !ok {
			m.pool.Remove(uid)
			continue
		}
		if filters.Matches(candidate.Attributes()) {
			return uid, true
		}
	}
	return 0, false
}
