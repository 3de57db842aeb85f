package seed

import (
	"regexp"
	"testing"

	"anonrelay/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	assert.NoError(t, err)
	return db, mock
}

func TestFactory_CreateUser_DryRun(t *testing.T) {
	db, _ := setupMockDB(t)
	factory := NewFactory(db, Options{DryRun: true})

	user, err := factory.CreateUser()
	assert.NoError(t, err)
	assert.NotEmpty(t, user.Username)
	assert.NotEmpty(t, user.Language)
}

func TestFactory_CreateUser_Persists(t *testing.T) {
	db, mock := setupMockDB(t)
	factory := NewFactory(db, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(100001))
	mock.ExpectCommit()

	user, err := factory.CreateUser(func(u *models.User) { u.Country = "Testland" })
	assert.NoError(t, err)
	assert.Equal(t, "Testland", user.Country)
}

func TestSeedBlockedWords(t *testing.T) {
	db, mock := setupMockDB(t)

	for range defaultBlockedWords {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "blocked_words" WHERE "blocked_words"."word" = $1 ORDER BY "blocked_words"."word" LIMIT $2`)).
			WillReturnRows(sqlmock.NewRows([]string{"word"}))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "blocked_words"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	err := seedBlockedWords(db)
	assert.NoError(t, err)
}
