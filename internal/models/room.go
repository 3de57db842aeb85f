package models

import "time"

// RoomStatus tracks a Room through its lifecycle (spec §3, §4.6).
type RoomStatus string

const (
	RoomStatusActive RoomStatus = "active"
	RoomStatusEnded  RoomStatus = "ended"
)

// Room is the sealed pairing between two users, created atomically by
// RoomMgr.CreateRoom once a match has been found. The opaque ID is a
// UUID rather than an auto-increment integer so it is safe to surface
// to moderators/admins without revealing ordering or volume.
type Room struct {
	ID       string     `gorm:"primaryKey;size:36" json:"id"`
	UserAID  uint       `gorm:"index;not null" json:"user_a_id"`
	UserBID  uint       `gorm:"index;not null" json:"user_b_id"`
	Status   RoomStatus `gorm:"size:16;index;default:active" json:"status"`
	IsAdmin  bool       `gorm:"index" json:"is_admin"`
	EndedBy  *uint      `json:"ended_by,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName pins the GORM table name.
func (Room) TableName() string { return "rooms" }

// PartnerOf returns the other participant's user ID, or 0 if userID is
// not a participant in this room.
func (r *Room) PartnerOf(userID uint) uint {
	switch userID {
	case r.UserAID:
		return r.UserBID
	case r.UserBID:
		return r.UserAID
	default:
		return 0
	}
}

// HasParticipant reports whether userID is one of the two room members.
func (r *Room) HasParticipant(userID uint) bool {
	return userID == r.UserAID || userID == r.UserBID
}

// IsActive reports whether the room can still relay messages.
func (r *Room) IsActive() bool {
	return r.Status == RoomStatusActive
}

// PastRetention reports whether an ended room is old enough to be
// purged by the lifecycle sweep (spec §9 open-question decision 1).
func (r *Room) PastRetention(retention time.Duration, now time.Time) bool {
	if r.Status != RoomStatusEnded || r.EndedAt == nil {
		return false
	}
	return now.Sub(*r.EndedAt) >= retention
}
