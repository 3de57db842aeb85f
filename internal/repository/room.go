package repository

import (
	"context"
	"errors"
	"time"

	"anonrelay/internal/models"
	"anonrelay/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomRepository defines persistence operations for rooms and the
// user->room binding secondary index.
type RoomRepository interface {
	// CreateSealed atomically binds both users to a new room. It
	// inserts both UserRoomBinding rows and the Room row in one
	// transaction; a unique-constraint violation on either binding
	// insert means one of the two users is already bound to a room,
	// and the whole transaction rolls back with a Conflict AppError
	// (spec §4.6 seal-match CAS).
	CreateSealed(ctx context.Context, userA, userB uint, isAdmin bool) (*models.Room, error)
	GetByID(ctx context.Context, roomID string) (*models.Room, error)
	GetActiveForUser(ctx context.Context, userID uint) (*models.Room, error)
	EndRoom(ctx context.Context, roomID string, endedBy uint) error
	EndRoomForUser(ctx context.Context, roomID string, userID uint) error
	DeletePastRetention(ctx context.Context, retention time.Duration) (int64, error)
	ReconcileOrphanBindings(ctx context.Context) (int64, error)
	EndHalfOpenRooms(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountTotal(ctx context.Context) (int64, error)
}

type roomRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewRoomRepository returns a new RoomRepository implementation.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db, logger: observability.NewRepoLogger("rooms")}
}

func (r *roomRepository) CreateSealed(ctx context.Context, userA, userB uint, isAdmin bool) (*models.Room, error) {
	start := time.Now()
	defer func() {
		observability.DatabaseQueryLatency.WithLabelValues("create", "rooms").Observe(time.Since(start).Seconds())
	}()

	room := &models.Room{
		ID:      uuid.NewString(),
		UserAID: userA,
		UserBID: userB,
		Status:  models.RoomStatusActive,
		IsAdmin: isAdmin,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		bindings := []models.UserRoomBinding{
			{UserID: userA, RoomID: room.ID},
			{UserID: userB, RoomID: room.ID},
		}
		if err := tx.Create(&bindings).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			r.logger.LogError(ctx, err, "create_sealed_conflict")
			return nil, models.NewConflictError("one of the two users is already in a room")
		}
		r.logger.LogError(ctx, err, "create_sealed")
		return nil, models.NewInternalError(err)
	}

	r.logger.LogCreate(ctx, map[string]interface{}{"room_id": room.ID, "user_a": userA, "user_b": userB})
	return room, nil
}

func (r *roomRepository) GetByID(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Room", roomID)
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

func (r *roomRepository) GetActiveForUser(ctx context.Context, userID uint) (*models.Room, error) {
	var binding models.UserRoomBinding
	if err := r.db.WithContext(ctx).First(&binding, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return r.GetByID(ctx, binding.RoomID)
}

// EndRoom marks the room ended and removes both bindings in one
// transaction so GetActiveForUser stops returning it immediately,
// while the Room row itself survives for retention (spec §9 decision 1).
func (r *roomRepository) EndRoom(ctx context.Context, roomID string, endedBy uint) error {
	start := time.Now()
	defer func() {
		observability.DatabaseQueryLatency.WithLabelValues("update", "rooms").Observe(time.Since(start).Seconds())
	}()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Room", roomID)
			}
			return models.NewInternalError(err)
		}
		if room.Status != models.RoomStatusActive {
			return nil
		}

		now := time.Now()
		updates := map[string]interface{}{"status": models.RoomStatusEnded, "ended_at": &now, "ended_by": &endedBy}
		if err := tx.Model(&room).Updates(updates).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("user_id IN ?", []uint{room.UserAID, room.UserBID}).
			Delete(&models.UserRoomBinding{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// EndRoomForUser releases only userID's own binding, leaving the room row
// active and the partner's binding untouched. Used when a message can't
// reach the partner (relay partner-gone, spec §4.7 step 4 / §7): the
// still-present sender is freed to re-enter matchmaking immediately,
// while the gone partner's binding is cleaned up later by
// Lifecycle.bindingReconcile once the room is no longer active for them.
func (r *roomRepository) EndRoomForUser(ctx context.Context, roomID string, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.UserRoomBinding{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeletePastRetention removes ended rooms older than retention, run by
// the lifecycle binding-reconciliation sweep (spec §9 decision 1).
func (r *roomRepository) DeletePastRetention(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.WithContext(ctx).
		Where("status = ? AND ended_at < ?", models.RoomStatusEnded, cutoff).
		Delete(&models.Room{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

// ReconcileOrphanBindings deletes bindings pointing at a room that no
// longer exists or is no longer active, covering the case where a crash
// left a binding behind without its matching EndRoom transaction
// completing (spec §4.1 cleanup_stale_rooms).
func (r *roomRepository) ReconcileOrphanBindings(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM user_room_bindings
		WHERE room_id NOT IN (SELECT id FROM rooms WHERE status = ?)
	`, models.RoomStatusActive)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

// EndHalfOpenRooms marks ended any still-active room missing one of its
// two bindings — the remnant left behind by a relay partner-gone
// single-sided release (EndRoomForUser, spec §4.7 step 4). The now-
// orphaned second binding is swept up by the next ReconcileOrphanBindings
// pass since the room is no longer active.
func (r *roomRepository) EndHalfOpenRooms(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE rooms SET status = ?, ended_at = ?
		WHERE status = ? AND id IN (
			SELECT room_id FROM user_room_bindings
			GROUP BY room_id
			HAVING COUNT(*) < 2
		)
	`, models.RoomStatusEnded, time.Now(), models.RoomStatusActive)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

// CountActive returns the number of rooms currently in progress.
func (r *roomRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("status = ?", models.RoomStatusActive).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// CountTotal returns the number of rooms ever created.
func (r *roomRepository) CountTotal(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Room{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
