package models

import "time"

// QueueEntry is a durable reservation in the premium queue (spec §4.4).
// Unlike PoolEntry, which lives only in process memory, a QueueEntry
// survives a process restart: a premium user who requested a match and
// then had their gateway connection bounce is still found when the
// queue scan next runs.
type QueueEntry struct {
	UserID    uint         `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Filters   MatchFilters `gorm:"embedded" json:"filters"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}

// TableName pins the GORM table name.
func (QueueEntry) TableName() string { return "queue_entries" }
