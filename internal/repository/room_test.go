package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"anonrelay/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestRoomRepository_CreateSealed_Conflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "rooms"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "user_room_bindings"`)).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "user_room_bindings_pkey"`))
	mock.ExpectRollback()

	room, err := repo.CreateSealed(ctx, 1, 2, false)
	assert.Error(t, err)
	assert.Nil(t, room)
	assert.True(t, models.IsConflict(err))
}

func TestRoomRepository_GetActiveForUser_NoBinding(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_room_bindings" WHERE user_id = $1`)).
		WithArgs(uint(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))

	room, err := repo.GetActiveForUser(ctx, 7)
	assert.NoError(t, err)
	assert.Nil(t, room)
}

func TestRoomRepository_EndRoomForUser(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "user_room_bindings" WHERE room_id = $1 AND user_id = $2`)).
		WithArgs("room-1", uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.EndRoomForUser(ctx, "room-1", 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_EndHalfOpenRooms(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rooms SET status`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.EndHalfOpenRooms(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRoom_PartnerOf(t *testing.T) {
	room := &models.Room{UserAID: 1, UserBID: 2}
	assert.Equal(t, uint(2), room.PartnerOf(1))
	assert.Equal(t, uint(1), room.PartnerOf(2))
	assert.Equal(t, uint(0), room.PartnerOf(99))
}
