package models

import "time"

// ChatLogEntry is an append-only record of a relayed message, written
// by Relay after a successful forward so moderators can reconstruct a
// room's transcript via viewhistory (spec §4.7). Content itself is
// never inspected by the store; Body carries whatever opaque text or
// media-handle string Filter already cleared.
type ChatLogEntry struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RoomID    string `gorm:"size:36;index;not null" json:"room_id"`
	SenderID  uint   `gorm:"index;not null" json:"sender_id"`
	Body      string `gorm:"type:text" json:"body"`
	MediaType string `gorm:"size:16" json:"media_type,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the GORM table name.
func (ChatLogEntry) TableName() string { return "chat_log_entries" }
