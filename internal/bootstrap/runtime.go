// Package bootstrap wires the database and cache connections together and
// runs the boot-time reconciliation steps the server process needs before
// it can serve traffic. cmd/admin and cmd/seed connect through
// database.Connect directly and skip these steps.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"anonrelay/internal/cache"
	"anonrelay/internal/config"
	"anonrelay/internal/database"
	"anonrelay/internal/repository"
	"anonrelay/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates the pool with fake users and a starter
	// blocked-word list. Intended for development only.
	SeedDemoData bool
	DemoUserCount int
}

// InitRuntime connects to the database and Redis, runs the boot-time
// reconciliation steps (mark every user offline, drop orphaned room
// bindings), and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	if err := userRepo.MarkAllOffline(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to mark users offline at boot: %w", err)
	}
	log.Println("boot reconciliation: marked all users offline")

	roomRepo := repository.NewRoomRepository(db)
	if n, err := roomRepo.EndHalfOpenRooms(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to end half-open rooms at boot: %w", err)
	} else if n > 0 {
		log.Printf("boot reconciliation: ended %d half-open rooms", n)
	}
	if n, err := roomRepo.ReconcileOrphanBindings(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to reconcile stale room bindings at boot: %w", err)
	} else if n > 0 {
		log.Printf("boot reconciliation: dropped %d orphaned room bindings", n)
	}

	if opts.SeedDemoData {
		count := opts.DemoUserCount
		if count <= 0 {
			count = 50
		}
		if err := seed.Seed(db, seed.Options{NumUsers: count, WithFilters: true}); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}
