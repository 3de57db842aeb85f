package repository

import (
	"context"
	"regexp"
	"testing"

	"anonrelay/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestQueueRepository_ScanInOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"user_id", "filter_gender", "created_at"}).
		AddRow(1, "", nil).
		AddRow(2, "female", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "queue_entries" ORDER BY created_at ASC LIMIT $1`)).
		WithArgs(50).
		WillReturnRows(rows)

	entries, err := repo.ScanInOrder(ctx, 0)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, models.Gender("female"), entries[1].Filters.Gender)
}

func TestQueueRepository_Enqueue(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "queue_entries"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Enqueue(ctx, 5, models.MatchFilters{Region: models.RegionAsia})
	assert.NoError(t, err)
}
