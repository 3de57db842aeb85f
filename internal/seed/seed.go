package seed

import (
	"fmt"
	"log"

	"anonrelay/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	WithFilters bool
	ShouldClean bool
	DryRun      bool
}

// defaultBlockedWords seeds a starter denylist so the filter package has
// something to match against out of the box; moderators extend this list
// at runtime via the blockword admin command.
var defaultBlockedWords = []string{
	"t.me/",
	"whatsapp.me/",
	"onlyfans.com/",
	"telegram.me/",
	"bit.ly/",
}

// Seed populates the database with sample pool users and a starter
// moderation word list.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("seeding %d users (withFilters=%v)", opts.NumUsers, opts.WithFilters)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Printf("warning: could not clear existing data, continuing: %v", err)
		}
	}

	factory := NewFactory(db, opts)
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("created %d pool users", len(users))

	if err := seedBlockedWords(db); err != nil {
		return fmt.Errorf("failed to seed blocked words: %w", err)
	}
	log.Printf("seeded %d blocked words", len(defaultBlockedWords))

	return nil
}

func seedBlockedWords(db *gorm.DB) error {
	for _, word := range defaultBlockedWords {
		entry := models.BlockedWord{Word: word}
		if err := db.FirstOrCreate(&entry, models.BlockedWord{Word: word}).Error; err != nil {
			return err
		}
	}
	return nil
}

func clearData(db *gorm.DB) error {
	sql := `TRUNCATE TABLE chat_log_entries, user_room_bindings, rooms, queue_entries, reports, blocked_words, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
