package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	PresenceKeyPrefix = "presence:%d"
	PoolKeyPrefix     = "pool:%s:%s:%s"
)

const (
	// UserTTL bounds how long a profile read survives in cache before
	// the next GetByID falls through to the store.
	UserTTL = 2 * time.Minute
	// PresenceTTL is the heartbeat window: a user with no refresh in
	// this long is treated as offline even if their DB row still says
	// otherwise.
	PresenceTTL = 90 * time.Second
)

// UserKey returns the cache key for a user's profile.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PresenceKey returns the presence marker key for a user.
func PresenceKey(userID uint) string {
	return fmt.Sprintf(PresenceKeyPrefix, userID)
}

// Invalidate deletes key if a client is configured.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser evicts a cached profile, used after any admin or
// profile-edit write so the next read sees fresh data.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
