package repository

import (
	"context"

	"anonrelay/internal/models"
	"anonrelay/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockedWordRepository defines persistence operations for the
// moderator-maintained word denylist (spec §4.2).
type BlockedWordRepository interface {
	Add(ctx context.Context, word string, addedBy uint) error
	Remove(ctx context.Context, word string) error
	List(ctx context.Context) ([]models.BlockedWord, error)
}

type blockedWordRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewBlockedWordRepository returns a new BlockedWordRepository implementation.
func NewBlockedWordRepository(db *gorm.DB) BlockedWordRepository {
	return &blockedWordRepository{db: db, logger: observability.NewRepoLogger("blocked_words")}
}

func (r *blockedWordRepository) Add(ctx context.Context, word string, addedBy uint) error {
	entry := models.BlockedWord{Word: word, AddedBy: addedBy}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		r.logger.LogError(ctx, err, "add")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blockedWordRepository) Remove(ctx context.Context, word string) error {
	if err := r.db.WithContext(ctx).Delete(&models.BlockedWord{}, "word = ?", word).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blockedWordRepository) List(ctx context.Context) ([]models.BlockedWord, error) {
	var words []models.BlockedWord
	if err := r.db.WithContext(ctx).Find(&words).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return words, nil
}
