package database

import "anonrelay/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Room{},
		&models.UserRoomBinding{},
		&models.QueueEntry{},
		&models.ChatLogEntry{},
		&models.Report{},
		&models.BlockedWord{},
	}
}
