package repository

import (
	"context"
	"errors"
	"time"

	"anonrelay/internal/models"
	"anonrelay/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueueRepository defines persistence operations for the durable
// premium queue (spec §4.4).
type QueueRepository interface {
	Enqueue(ctx context.Context, userID uint, filters models.MatchFilters) error
	Dequeue(ctx context.Context, userID uint) error
	Contains(ctx context.Context, userID uint) (bool, error)
	// ScanInOrder returns entries oldest-first for the queue scan to
	// walk in insertion order (spec §4.4).
	ScanInOrder(ctx context.Context, limit int) ([]models.QueueEntry, error)
}

type queueRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewQueueRepository returns a new QueueRepository implementation.
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db, logger: observability.NewRepoLogger("queue_entries")}
}

func (r *queueRepository) Enqueue(ctx context.Context, userID uint, filters models.MatchFilters) error {
	entry := models.QueueEntry{UserID: userID, Filters: filters, CreatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"filter_gender", "filter_region", "filter_language", "created_at"}),
	}).Create(&entry).Error
	if err != nil {
		r.logger.LogError(ctx, err, "enqueue")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *queueRepository) Dequeue(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.QueueEntry{}, "user_id = ?", userID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *queueRepository) Contains(ctx context.Context, userID uint) (bool, error) {
	var entry models.QueueEntry
	err := r.db.WithContext(ctx).First(&entry, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *queueRepository) ScanInOrder(ctx context.Context, limit int) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if err := r.db.WithContext(ctx).Order("created_at ASC").Limit(clampLimit(limit)).Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
