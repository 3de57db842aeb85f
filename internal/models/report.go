package models

import "time"

// ReportStatus tracks moderator triage of a user report.
type ReportStatus string

const (
	ReportStatusOpen      ReportStatus = "open"
	ReportStatusReviewed  ReportStatus = "reviewed"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Report is filed by a participant against their current or most
// recent room partner (spec §4.7 moderation surface, supplemented from
// original_source/handlers/report.py — the source persists the
// reporter, reported user, room and free-text reason so a moderator
// can pull up userinfo/roominfo/viewhistory for the same room).
type Report struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	RoomID     string       `gorm:"size:36;index" json:"room_id"`
	ReporterID uint         `gorm:"index;not null" json:"reporter_id"`
	ReportedID uint         `gorm:"index;not null" json:"reported_id"`
	Reason     string       `gorm:"type:text" json:"reason,omitempty"`
	Status     ReportStatus `gorm:"size:16;index;default:open" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the GORM table name.
func (Report) TableName() string { return "reports" }
