package models

import "time"

// BlockedWord is a single entry in the moderator-maintained denylist
// consulted by internal/filter. Stored rather than hardcoded so
// blockword/unblockword admin commands can mutate it at runtime
// without a redeploy (spec §4.7, original_source/handlers/admincmds.py
// block_word/unblock_word).
type BlockedWord struct {
	Word      string    `gorm:"primaryKey;size:128" json:"word"`
	AddedBy   uint      `json:"added_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the GORM table name.
func (BlockedWord) TableName() string { return "blocked_words" }
