// Package seed provides helpers to populate a development database with
// realistic pool users and a starter moderation word list. These helpers
// are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"anonrelay/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db     *gorm.DB
	opts   Options
	nextID uint
}

var genders = []models.Gender{models.GenderMale, models.GenderFemale}

var regions = []models.Region{
	models.RegionAfrica,
	models.RegionAsia,
	models.RegionEurope,
	models.RegionNorthAmerica,
	models.RegionSouthAmerica,
	models.RegionOceania,
}

var languages = []models.Language{
	models.LanguageEN,
	models.LanguageAR,
	models.LanguageHI,
	models.LanguageID,
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 100000}
}

// CreateUser constructs and persists a sample `models.User` with randomized
// matching attributes. Optional override functions may modify the generated
// user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	//nolint:gosec // weak RNG is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	f.nextID++
	user := &models.User{
		UserID:    f.nextID,
		Username:  gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		FirstName: gofakeit.FirstName(),
		Name:      gofakeit.Name(),
		Language:  languages[r.Intn(len(languages))],
		Gender:    genders[r.Intn(len(genders))],
		Region:    regions[r.Intn(len(regions))],
		Country:   gofakeit.Country(),
		IsOnline:  true,
	}

	if f.opts.WithFilters {
		// Roughly two thirds of seeded users set a gender or region matching
		// preference so
		// filtered-matching paths have candidates to exercise against.
		switch r.Intn(3) {
		case 0:
			user.MatchFilters.Gender = genders[r.Intn(len(genders))]
		case 1:
			user.MatchFilters.Region = regions[r.Intn(len(regions))]
		}
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
