// Package roommgr owns the durable session/room lifecycle: creating sealed
// rooms, ending them, and resolving a user's current partner.
package roommgr

import (
	"context"

	"anonrelay/internal/models"
	"anonrelay/internal/repository"
)

// RoomMgr is the domain-facing wrapper over repository.RoomRepository.
type RoomMgr struct {
	repo repository.RoomRepository
}

// New creates a RoomMgr backed by repo.
func New(repo repository.RoomRepository) *RoomMgr {
	return &RoomMgr{repo: repo}
}

// CreateRoom atomically binds a and b into a new active room. Returns a
// Conflict *models.AppError if either user is already bound elsewhere.
func (m *RoomMgr) CreateRoom(ctx context.Context, a, b uint) (*models.Room, error) {
	return m.repo.CreateSealed(ctx, a, b, false)
}

// AdoptAdminRoom creates a room flagged as a privileged admin pairing, so
// the user still sees a normal-match notification while the admin side is
// marked for moderation bookkeeping.
func (m *RoomMgr) AdoptAdminRoom(ctx context.Context, adminID, userID uint) (*models.Room, error) {
	return m.repo.CreateSealed(ctx, adminID, userID, true)
}

// LinkUsers is an admin operation that seals a room between two users not
// currently bound. Callers are responsible for withdrawing both users from
// Pool and Queue first (spec §4.6).
func (m *RoomMgr) LinkUsers(ctx context.Context, a, b uint) (*models.Room, error) {
	return m.repo.CreateSealed(ctx, a, b, true)
}

// ReleaseBinding releases only userID's own binding to roomID, leaving the
// room active and the partner's binding untouched (spec §4.7 step 4 / §7
// partner-gone): the caller is immediately free to re-enter matchmaking
// while the unreachable partner's side is reconciled later by
// Lifecycle.bindingReconcile.
func (m *RoomMgr) ReleaseBinding(ctx context.Context, roomID string, userID uint) error {
	return m.repo.EndRoomForUser(ctx, roomID, userID)
}

// EndRoom ends the caller's active room, if any, and returns the partner's
// id so the caller can be notified. Returns (0, nil) if the caller holds
// no binding.
func (m *RoomMgr) EndRoom(ctx context.Context, callerID uint) (uint, error) {
	room, err := m.repo.GetActiveForUser(ctx, callerID)
	if err != nil {
		return 0, err
	}
	if room == nil {
		return 0, nil
	}
	if err := m.repo.EndRoom(ctx, room.ID, callerID); err != nil {
		return 0, err
	}
	return room.PartnerOf(callerID), nil
}

// GetPartner resolves the other participant of userID's active room, or
// (0, false) if userID holds no binding.
func (m *RoomMgr) GetPartner(ctx context.Context, userID uint) (uint, bool, error) {
	room, err := m.repo.GetActiveForUser(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if room == nil {
		return 0, false, nil
	}
	return room.PartnerOf(userID), true, nil
}

// GetActiveRoom returns userID's active room, or nil if unbound.
func (m *RoomMgr) GetActiveRoom(ctx context.Context, userID uint) (*models.Room, error) {
	return m.repo.GetActiveForUser(ctx, userID)
}
