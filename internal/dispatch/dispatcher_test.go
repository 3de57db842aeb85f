package dispatch

import (
	"context"
	"testing"

	"anonrelay/internal/config"
	"anonrelay/internal/featureflags"
	"anonrelay/internal/filter"
	"anonrelay/internal/gateway"
	"anonrelay/internal/matchmaker"
	"anonrelay/internal/pool"
	"anonrelay/internal/presence"
	"anonrelay/internal/queue"
	"anonrelay/internal/relay"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type noopSender struct{}

func (noopSender) SendText(context.Context, uint, string) error { return nil }
func (noopSender) SendMedia(context.Context, uint, gateway.MediaType, string, string) error {
	return nil
}
func (noopSender) SendToModerator(context.Context, string) error { return nil }

func setupDispatcher(t *testing.T) (*Dispatcher, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{AdminUserIDs: []int{99}, ReferralPremiumDays: 3, BroadcastPaceMillis: 0}
	sender := noopSender{}
	users := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	rooms := roommgr.New(roomRepo)
	chatlog := repository.NewChatLogRepository(db)
	words := repository.NewBlockedWordRepository(db)
	reports := repository.NewReportRepository(db)
	f := filter.New(nil)
	strikes := filter.NewStrikeCounter()
	p := pool.New()
	q := queue.New(repository.NewQueueRepository(db))
	flags := featureflags.NewManager("advanced_matching=off")
	pr := presence.NewTracker(nil)
	mm := matchmaker.New(p, q, rooms, users, flags, pr)

	admin := gateway.NewAdminCommands(cfg, sender, users, rooms, roomRepo, chatlog, words, reports, f, p, q)
	user := gateway.NewUserCommands(cfg, sender, users, mm, rooms, reports, chatlog)
	r := relay.New(rooms, roomRepo, users, chatlog, f, strikes, sender, 3)

	return New(admin, user, r, pr, users), mock
}

// expectMarkOnline registers the SetOnline write Dispatch's offline-to-
// online presence transition performs for userID on a fresh Dispatcher
// (setupDispatcher always starts with an empty presence tracker).
func expectMarkOnline(mock sqlmock.Sqlmock, userID uint) {
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "is_online"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestDispatcher_AdminCommand_Unauthorized(t *testing.T) {
	d, mock := setupDispatcher(t)
	expectMarkOnline(mock, 1)
	result := d.Dispatch(context.Background(), gateway.Update{UserID: 1, Command: "block", Args: []string{"2"}})
	assert.Equal(t, gateway.ResultUnauthorized, result.Kind)
}

func TestDispatcher_PlainMessage_NotInRoom(t *testing.T) {
	d, mock := setupDispatcher(t)
	expectMarkOnline(mock, 1)

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))

	result := d.Dispatch(context.Background(), gateway.Update{UserID: 1, Text: "hello"})
	assert.Equal(t, gateway.ResultOK, result.Kind)
	assert.Equal(t, "you are not currently in a room", result.Message)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, mock := setupDispatcher(t)
	expectMarkOnline(mock, 1)
	result := d.Dispatch(context.Background(), gateway.Update{UserID: 1, Command: "nonsense"})
	assert.Equal(t, gateway.ResultError, result.Kind)
}
