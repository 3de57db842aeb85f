package repository

import (
	"context"
	"time"

	"anonrelay/internal/models"
	"anonrelay/internal/observability"

	"gorm.io/gorm"
)

// ChatLogRepository defines persistence operations for the append-only
// relayed-message transcript (spec §4.7).
type ChatLogRepository interface {
	Append(ctx context.Context, entry *models.ChatLogEntry) error
	ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]models.ChatLogEntry, error)
}

type chatLogRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewChatLogRepository returns a new ChatLogRepository implementation.
func NewChatLogRepository(db *gorm.DB) ChatLogRepository {
	return &chatLogRepository{db: db, logger: observability.NewRepoLogger("chat_log_entries")}
}

func (r *chatLogRepository) Append(ctx context.Context, entry *models.ChatLogEntry) error {
	start := time.Now()
	defer func() {
		observability.DatabaseQueryLatency.WithLabelValues("create", "chat_log_entries").Observe(time.Since(start).Seconds())
	}()
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.LogError(ctx, err, "append")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatLogRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]models.ChatLogEntry, error) {
	var entries []models.ChatLogEntry
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Limit(clampLimit(limit)).Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
