package repository

import (
	"context"
	"regexp"
	"testing"

	"anonrelay/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestChatLogRepository_ListByRoom(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewChatLogRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "room_id", "sender_id", "body"}).
		AddRow(1, "room-1", 10, "hello").
		AddRow(2, "room-1", 20, "hi")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "chat_log_entries" WHERE room_id = $1 ORDER BY created_at ASC LIMIT $2`)).
		WithArgs("room-1", 50).
		WillReturnRows(rows)

	entries, err := repo.ListByRoom(ctx, "room-1", 0, 0)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Body)
}

func TestChatLogRepository_Append(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewChatLogRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "chat_log_entries"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Append(ctx, &models.ChatLogEntry{RoomID: "room-1", SenderID: 10, Body: "hello"})
	assert.NoError(t, err)
}
