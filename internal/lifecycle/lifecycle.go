// Package lifecycle runs the background sweep loops: premium expiry,
// queue-to-pool match scanning, and stale-binding/room reconciliation.
// None of the three loops block the relay path; each is a ticker-driven
// goroutine sharing one context and stop channel, grounded on the
// teacher's notifications.ConnectionManager.reaperLoop shape.
package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"

	"anonrelay/internal/gateway"
	"anonrelay/internal/models"
	"anonrelay/internal/pool"
	"anonrelay/internal/presence"
	"anonrelay/internal/queue"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"
)

// Config controls loop cadences. Correctness does not depend on exact
// intervals.
type Config struct {
	ExpirySweepInterval      time.Duration
	QueueScanInterval        time.Duration
	BindingReconcileInterval time.Duration
	RoomRetention            time.Duration
}

// Controller owns the three periodic sweepers.
type Controller struct {
	cfg      Config
	users    repository.UserRepository
	pool     *pool.Pool
	queue    *queue.Queue
	rooms    *roommgr.RoomMgr
	roomRepo repository.RoomRepository
	sender   gateway.Sender
	presence *presence.Tracker

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a Controller wired to its collaborators. pr backs the
// presence reap step of the binding-reconcile sweep.
func New(
	cfg Config,
	users repository.UserRepository,
	p *pool.Pool,
	q *queue.Queue,
	rooms *roommgr.RoomMgr,
	roomRepo repository.RoomRepository,
	sender gateway.Sender,
	pr *presence.Tracker,
) *Controller {
	return &Controller{
		cfg: cfg, users: users, pool: p, queue: q, rooms: rooms,
		roomRepo: roomRepo, sender: sender, presence: pr, stopCh: make(chan struct{}),
	}
}

// Start launches the three sweep loops as background goroutines.
func (c *Controller) Start(ctx context.Context) {
	c.wg.Add(3)
	go c.loop(ctx, "expiry_sweep", c.cfg.ExpirySweepInterval, c.expirySweep)
	go c.loop(ctx, "queue_scan", c.cfg.QueueScanInterval, c.queueScan)
	go c.loop(ctx, "binding_reconcile", c.cfg.BindingReconcileInterval, c.bindingReconcile)
}

// Stop signals all loops to exit and waits for them to return.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *Controller) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	defer c.wg.Done()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runGuarded(ctx, name, fn)
		}
	}
}

// runGuarded contains a single iteration's panic/error so one bad sweep
// never terminates the loop.
func (c *Controller) runGuarded(ctx context.Context, name string, fn func(context.Context)) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("lifecycle loop %s recovered from panic: %v", name, rec)
		}
	}()
	fn(ctx)
}

// expirySweep downgrades every premium user whose grant has lapsed.
func (c *Controller) expirySweep(ctx context.Context) {
	const pageSize = 200
	now := time.Now()
	for offset := 0; ; offset += pageSize {
		users, err := c.users.List(ctx, pageSize, offset)
		if err != nil {
			log.Printf("expiry sweep: list users failed: %v", err)
			return
		}
		for _, u := range users {
			if u.IsPremium && u.PremiumExpiry != nil && u.PremiumExpiry.Before(now) {
				if err := c.users.SetPremium(ctx, u.UserID, nil); err != nil {
					log.Printf("expiry sweep: downgrade user %d failed: %v", u.UserID, err)
					continue
				}
				_ = c.sender.SendText(ctx, u.UserID, "your premium subscription has expired")
			}
		}
		if len(users) < pageSize {
			return
		}
	}
}

// queueScan evicts queued users who already hold a binding, and attempts
// to seal a match for the rest against online, unbound candidates.
func (c *Controller) queueScan(ctx context.Context) {
	entries, err := c.queue.IterAll(ctx)
	if err != nil {
		log.Printf("queue scan: iterate failed: %v", err)
		return
	}
	for _, entry := range entries {
		room, err := c.rooms.GetActiveRoom(ctx, entry.UserID)
		if err != nil {
			continue
		}
		if room != nil {
			_ = c.queue.Remove(ctx, entry.UserID)
			continue
		}

		candidate, ok := c.findOnlineMatch(ctx, entry)
		if !ok {
			continue
		}
		sealed, err := c.rooms.CreateRoom(ctx, entry.UserID, candidate)
		if err != nil {
			if models.IsConflict(err) {
				continue
			}
			log.Printf("queue scan: seal match failed: %v", err)
			continue
		}
		_ = c.queue.Remove(ctx, entry.UserID)
		_ = c.sender.SendText(ctx, entry.UserID, "you have been matched")
		_ = c.sender.SendText(ctx, candidate, "you have been matched")
		_ = sealed
	}
}

// findOnlineMatch scans the opportunistic pool for a candidate satisfying
// entry's saved filters, exactly as Matchmaker's Advanced path would.
func (c *Controller) findOnlineMatch(ctx context.Context, entry models.QueueEntry) (uint, bool) {
	for _, uid := range c.pool.Snapshot() {
		if uid == entry.UserID {
			continue
		}
		user, err := c.users.GetByID(ctx, uid)
		if err != nil {
			continue
		}
		if !user.IsEligibleForPool(c.presence.IsOnline(ctx, uid)) {
			c.pool.Remove(uid)
			continue
		}
		if entry.Filters.Matches(user.Attributes()) {
			c.pool.Remove(uid)
			return uid, true
		}
	}
	return 0, false
}

// bindingReconcile closes out half-open rooms left by a relay partner-gone
// single-sided release, deletes bindings whose room is missing or
// inactive, purges ended rooms past their retention window, and reaps
// expired presence markers.
func (c *Controller) bindingReconcile(ctx context.Context) {
	if n, err := c.roomRepo.EndHalfOpenRooms(ctx); err != nil {
		log.Printf("binding reconcile: end half-open rooms: %v", err)
	} else if n > 0 {
		log.Printf("binding reconcile: closed %d half-open rooms", n)
	}

	if n, err := c.roomRepo.ReconcileOrphanBindings(ctx); err != nil {
		log.Printf("binding reconcile: %v", err)
	} else if n > 0 {
		log.Printf("binding reconcile: dropped %d orphan bindings", n)
	}

	c.presence.Reap(ctx)

	if c.cfg.RoomRetention <= 0 {
		return
	}
	if n, err := c.roomRepo.DeletePastRetention(ctx, c.cfg.RoomRetention); err != nil {
		log.Printf("binding reconcile: delete past retention: %v", err)
	} else if n > 0 {
		log.Printf("binding reconcile: purged %d rooms past retention", n)
	}
}
