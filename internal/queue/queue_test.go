package queue

import (
	"context"
	"testing"

	"anonrelay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"anonrelay/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupMockQueue(t *testing.T) (*Queue, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return New(repository.NewQueueRepository(db)), mock
}

func TestQueue_ScanForMatch_SkipsSelfAndFindsSatisfying(t *testing.T) {
	q, mock := setupMockQueue(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"user_id", "filter_gender", "filter_region", "filter_language"}).
		AddRow(1, "", "", "").
		AddRow(2, "female", "", "")

	mock.ExpectQuery("SELECT .* FROM \"queue_entries\"").WillReturnRows(rows)

	match, err := q.ScanForMatch(ctx, models.UserAttributes{UserID: 1, Gender: models.GenderFemale})
	assert.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uint(2), match.UserID)
}

func TestQueue_ScanForMatch_NoMatch(t *testing.T) {
	q, mock := setupMockQueue(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"user_id", "filter_gender", "filter_region", "filter_language"}).
		AddRow(2, "male", "", "")

	mock.ExpectQuery("SELECT .* FROM \"queue_entries\"").WillReturnRows(rows)

	match, err := q.ScanForMatch(ctx, models.UserAttributes{UserID: 1, Gender: models.GenderFemale})
	assert.NoError(t, err)
	assert.Nil(t, match)
}
