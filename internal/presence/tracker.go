// Package presence tracks the coarse online/offline marker the matchmaker
// and pool rely on, without implementing connection-level heartbeats
// (Non-goal: presence heartbeats beyond coarse online/offline markers).
package presence

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultOnlineSetKey      = "presence:online_users"
	defaultLastSeenKeyPrefix = "presence:last_seen:"
	defaultTTL               = 90 * time.Second
)

// Tracker marks users online/offline and mirrors the marker in Redis so
// every process observes the same presence state. When Redis is
// unavailable it falls back to an in-process map (mirrors the teacher's
// `rdb == nil` fallback behavior throughout cache/notifications).
type Tracker struct {
	rdb *redis.Client

	mu     sync.RWMutex
	local  map[uint]bool

	onlineSetKey  string
	lastSeenKey   string
	ttl           time.Duration
}

// NewTracker creates a Tracker bound to rdb. rdb may be nil, in which case
// the tracker operates purely in-process.
func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{
		rdb:          rdb,
		local:        make(map[uint]bool),
		onlineSetKey: defaultOnlineSetKey,
		lastSeenKey:  defaultLastSeenKeyPrefix,
		ttl:          defaultTTL,
	}
}

// MarkOnline records the user as online and refreshes its TTL.
func (t *Tracker) MarkOnline(ctx context.Context, userID uint) {
	t.mu.Lock()
	t.local[userID] = true
	t.mu.Unlock()

	if t.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	if err := t.rdb.SAdd(ctx, t.onlineSetKey, uid).Err(); err != nil {
		log.Printf("presence mark-online SADD failed for user %d: %v", userID, err)
	}
	if err := t.rdb.Set(ctx, t.lastSeenKey+uid, "1", t.ttl).Err(); err != nil {
		log.Printf("presence mark-online SET failed for user %d: %v", userID, err)
	}
}

// MarkOffline records the user as offline immediately.
func (t *Tracker) MarkOffline(ctx context.Context, userID uint) {
	t.mu.Lock()
	delete(t.local, userID)
	t.mu.Unlock()

	if t.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	_ = t.rdb.SRem(ctx, t.onlineSetKey, uid).Err()
	_ = t.rdb.Del(ctx, t.lastSeenKey+uid).Err()
}

// IsOnline reports whether the user is currently considered online.
func (t *Tracker) IsOnline(ctx context.Context, userID uint) bool {
	if t.rdb == nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
		return t.local[userID]
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	exists, err := t.rdb.Exists(ctx, t.lastSeenKey+uid).Result()
	if err != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
		return t.local[userID]
	}
	return exists > 0
}

// Reap drops any Redis presence key that has expired from the online set.
// Call periodically from lifecycle.Controller; a no-op when Redis is nil.
func (t *Tracker) Reap(ctx context.Context) {
	if t.rdb == nil {
		return
	}
	members, err := t.rdb.SMembers(ctx, t.onlineSetKey).Result()
	if err != nil {
		return
	}
	for _, raw := range members {
		exists, err := t.rdb.Exists(ctx, t.lastSeenKey+raw).Result()
		if err != nil || exists > 0 {
			continue
		}
		_ = t.rdb.SRem(ctx, t.onlineSetKey, raw).Err()
	}
}
