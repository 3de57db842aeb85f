package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"anonrelay/internal/cache"
	"anonrelay/internal/models"
	"anonrelay/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for user profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetBlocked(ctx context.Context, userID uint, blocked bool) error
	SetPremium(ctx context.Context, userID uint, expiry *time.Time) error
	SetOnline(ctx context.Context, userID uint, online bool) error
	MarkAllOffline(ctx context.Context) error
	IncrementReferralCount(ctx context.Context, userID uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	CountOnline(ctx context.Context) (int64, error)
	CountPremium(ctx context.Context) (int64, error)
}

type userRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, logger: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		start := time.Now()
		defer func() {
			observability.DatabaseQueryLatency.WithLabelValues("read", "users").Observe(time.Since(start).Seconds())
		}()
		if err := r.db.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername looks a profile up by its saved handle. The comparison is
// case-insensitive (spec §4.1: admin targets and username lookups must
// not depend on the caller getting capitalization right).
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Upsert creates the profile row on first contact or, on a repeat
// contact from the same UserID, merges in a handful of always-fresh
// fields without clobbering existing premium/block/referral state.
// Grounded on original_source/db.py's add_user merge-with-defaults
// behavior: a returning user's saved preferences survive a second
// /start.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	start := time.Now()
	defer func() {
		observability.DatabaseQueryLatency.WithLabelValues("upsert", "users").Observe(time.Since(start).Seconds())
	}()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "first_name", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		r.logger.LogError(ctx, err, "upsert")
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.UserID)
	r.logger.LogCreate(ctx, map[string]interface{}{"user_id": user.UserID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.UserID)
	return nil
}

func (r *userRepository) SetBlocked(ctx context.Context, userID uint, blocked bool) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).Update("blocked", blocked).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *userRepository) SetPremium(ctx context.Context, userID uint, expiry *time.Time) error {
	updates := map[string]interface{}{"is_premium": expiry != nil, "premium_expiry": expiry}
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *userRepository) SetOnline(ctx context.Context, userID uint, online bool) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).Update("is_online", online).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// MarkAllOffline resets every user's online flag. Run once at boot
// (original_source's mark_all_users_offline) so a process restart does
// not leave stale online users unreachable in the pool.
func (r *userRepository) MarkAllOffline(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("is_online = ?", true).Update("is_online", false).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) IncrementReferralCount(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		UpdateColumn("referral_count", gorm.Expr("referral_count + 1")).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Limit(clampLimit(limit)).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *userRepository) CountOnline(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_online = ?", true).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *userRepository) CountPremium(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_premium = ?", true).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
