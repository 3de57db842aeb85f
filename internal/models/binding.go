package models

import "time"

// UserRoomBinding is the secondary index used to answer "what room, if
// any, is this user currently in" in O(1) without scanning rooms by
// participant columns. RoomMgr.CreateRoom writes both participants'
// bindings in the same transaction that inserts the Room row; EndRoom
// clears them. A unique index on UserID enforces invariant I2 (a user
// is in at most one active room) at the store layer, not just in
// application code (spec §3, §4.6).
type UserRoomBinding struct {
	UserID    uint   `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	RoomID    string `gorm:"size:36;index;not null" json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the GORM table name.
func (UserRoomBinding) TableName() string { return "user_room_bindings" }
