package relay

import (
	"context"
	"errors"
	"testing"

	"anonrelay/internal/filter"
	"anonrelay/internal/gateway"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeSender struct {
	textTo     map[uint][]string
	moderator  []string
	failSendTo uint
}

func newFakeSender() *fakeSender {
	return &fakeSender{textTo: make(map[uint][]string)}
}

func (f *fakeSender) SendText(_ context.Context, userID uint, text string) error {
	if userID == f.failSendTo {
		return errors.New("send failed")
	}
	f.textTo[userID] = append(f.textTo[userID], text)
	return nil
}
func (f *fakeSender) SendMedia(context.Context, uint, gateway.MediaType, string, string) error { return nil }
func (f *fakeSender) SendToModerator(_ context.Context, text string) error {
	f.moderator = append(f.moderator, text)
	return nil
}

func setupRelay(t *testing.T) (*Relay, sqlmock.Sqlmock, *fakeSender) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	rooms := roommgr.New(repository.NewRoomRepository(db))
	roomRepo := repository.NewRoomRepository(db)
	chatlog := repository.NewChatLogRepository(db)
	users := repository.NewUserRepository(db)
	f := filter.New([]string{"scam"})
	strikes := filter.NewStrikeCounter()
	sender := newFakeSender()

	return New(rooms, roomRepo, users, chatlog, f, strikes, sender, 3), mock, sender
}

func TestRelay_Handle_NotInRoom(t *testing.T) {
	r, mock, sender := setupRelay(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))

	result, err := r.Handle(ctx, Inbound{SenderID: 1, Text: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, NotInRoom, result.Outcome)
	assert.Contains(t, sender.textTo[1][0], "not currently in a room")
}

func TestRelay_Handle_PartnerGone(t *testing.T) {
	r, mock, sender := setupRelay(t)
	sender.failSendTo = 2
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}).AddRow(1, "room-1"))
	mock.ExpectQuery(`SELECT \* FROM "rooms" WHERE id = \$1`).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_a_id", "user_b_id", "status"}).
			AddRow("room-1", 1, 2, "active"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "chat_log_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
	mock.ExpectExec(`DELETE FROM "user_room_bindings" WHERE room_id = \$1 AND user_id = \$2`).
		WithArgs("room-1", uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := r.Handle(ctx, Inbound{SenderID: 1, Text: "hello"})
	assert.NoError(t, err)
	assert.Equal(t, PartnerGone, result.Outcome)
	assert.Contains(t, sender.textTo[1][0], "no longer reachable")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelay_Handle_BlockedWord(t *testing.T) {
	r, mock, sender := setupRelay(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}).AddRow(1, "room-1"))
	mock.ExpectQuery(`SELECT \* FROM "rooms" WHERE id = \$1`).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_a_id", "user_b_id", "status"}).
			AddRow("room-1", 1, 2, "active"))

	result, err := r.Handle(ctx, Inbound{SenderID: 1, Text: "this is a scam"})
	assert.NoError(t, err)
	assert.Equal(t, BlockedByFilter, result.Outcome)
	assert.Contains(t, sender.textTo[1][0], "message blocked")
}
