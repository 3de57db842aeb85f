// Package queue wraps the durable premium queue: persistent, filtered
// matching for users who are not satisfied by the opportunistic pool.
package queue

import (
	"context"

	"anonrelay/internal/models"
	"anonrelay/internal/repository"
)

// Queue is the domain-facing wrapper over repository.QueueRepository.
type Queue struct {
	repo repository.QueueRepository
}

// New creates a Queue backed by repo.
func New(repo repository.QueueRepository) *Queue {
	return &Queue{repo: repo}
}

// Upsert inserts or refreshes a QueueEntry for userID with the given filters.
func (q *Queue) Upsert(ctx context.Context, userID uint, filters models.MatchFilters) error {
	return q.repo.Enqueue(ctx, userID, filters)
}

// Remove evicts userID from the queue. Idempotent.
func (q *Queue) Remove(ctx context.Context, userID uint) error {
	return q.repo.Dequeue(ctx, userID)
}

// Contains reports whether userID currently holds a queue entry.
func (q *Queue) Contains(ctx context.Context, userID uint) (bool, error) {
	return q.repo.Contains(ctx, userID)
}

// ScanForMatch walks the queue in store-natural (insertion) order and
// returns the first entry whose saved filters are satisfied by the
// candidate's attributes, so older entries are not starved by newer ones.
func (q *Queue) ScanForMatch(ctx context.Context, candidate models.UserAttributes) (*models.QueueEntry, error) {
	entries, err := q.repo.ScanInOrder(ctx, scanAllLimit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].UserID == candidate.UserID {
			continue
		}
		if entries[i].Filters.Matches(candidate) {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// IterAll returns up to scanAllLimit queue entries in insertion order,
// for the background queue-scan sweeper.
func (q *Queue) IterAll(ctx context.Context) ([]models.QueueEntry, error) {
	return q.repo.ScanInOrder(ctx, scanAllLimit)
}

// scanAllLimit caps full-queue scans at repository.maxListLimit; the
// queue is expected to hold at most low thousands of entries (spec §5).
const scanAllLimit = 200
