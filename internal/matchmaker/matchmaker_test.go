package matchmaker

import (
	"context"
	"testing"
	"time"

	"anonrelay/internal/featureflags"
	"anonrelay/internal/models"
	"anonrelay/internal/pool"
	"anonrelay/internal/presence"
	"anonrelay/internal/queue"
	"anonrelay/internal/repository"
	"anonrelay/internal/roommgr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type userRepoStub struct {
	users map[uint]*models.User
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(context.Context, string) (*models.User, error) { return nil, nil }
func (s *userRepoStub) Upsert(context.Context, *models.User) error                  { return nil }
func (s *userRepoStub) Update(context.Context, *models.User) error                  { return nil }
func (s *userRepoStub) SetBlocked(context.Context, uint, bool) error                { return nil }
func (s *userRepoStub) SetPremium(context.Context, uint, *time.Time) error          { return nil }
func (s *userRepoStub) SetOnline(context.Context, uint, bool) error                 { return nil }
func (s *userRepoStub) MarkAllOffline(context.Context) error                        { return nil }
func (s *userRepoStub) IncrementReferralCount(context.Context, uint) error          { return nil }
func (s *userRepoStub) List(context.Context, int, int) ([]models.User, error)       { return nil, nil }

func setupMatchmaker(t *testing.T, users map[uint]*models.User, flags string) (*Matchmaker, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	p := pool.New()
	q := queue.New(repository.NewQueueRepository(db))
	rooms := roommgr.New(repository.NewRoomRepository(db))
	pr := presence.NewTracker(nil)
	for uid := range users {
		pr.MarkOnline(context.Background(), uid)
	}
	return New(p, q, rooms, &userRepoStub{users: users}, featureflags.NewManager(flags), pr), mock
}

func TestMatchmaker_Find_SimplePathSearchingThenMatched(t *testing.T) {
	users := map[uint]*models.User{
		1: {UserID: 1},
		2: {UserID: 2},
	}
	mm, mock := setupMatchmaker(t, users, "advanced_matching=on")
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))

	result, err := mm.Find(ctx, 1, models.MatchFilters{})
	assert.NoError(t, err)
	assert.Equal(t, Searching, result.Outcome)

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "rooms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("room-1"))
	mock.ExpectQuery(`INSERT INTO "user_room_bindings"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(2).AddRow(1))
	mock.ExpectCommit()

	result, err = mm.Find(ctx, 2, models.MatchFilters{})
	assert.NoError(t, err)
	assert.Equal(t, Matched, result.Outcome)
	assert.Equal(t, uint(1), result.Partner)
}

func TestMatchmaker_Find_BlockedUserRefused(t *testing.T) {
	users := map[uint]*models.User{1: {UserID: 1, Blocked: true}}
	mm, mock := setupMatchmaker(t, users, "advanced_matching=on")
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))

	result, err := mm.Find(ctx, 1, models.MatchFilters{})
	assert.NoError(t, err)
	assert.Equal(t, Blocked, result.Outcome)
}

func TestMatchmaker_Find_OfflineUserRefused(t *testing.T) {
	users := map[uint]*models.User{1: {UserID: 1}}
	mm, mock := setupMatchmaker(t, users, "advanced_matching=on")
	ctx := context.Background()
	mm.presence.MarkOffline(ctx, 1)

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))

	result, err := mm.Find(ctx, 1, models.MatchFilters{})
	assert.NoError(t, err)
	assert.Equal(t, Blocked, result.Outcome)
}

func TestMatchmaker_Find_AlreadySearching(t *testing.T) {
	users := map[uint]*models.User{1: {UserID: 1}}
	mm, mock := setupMatchmaker(t, users, "advanced_matching=on")
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "user_room_bindings" WHERE user_id = \$1`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "room_id"}))

	result, err := mm.Find(ctx, 1, models.MatchFilters{})
	assert.NoError(t, err)
	assert.Equal(t, Searching, result.Outcome)

	result, err = mm.Find(ctx, 1, models.MatchFilters{})
	assert.NoError(t, err)
	assert.Equal(t, AlreadySearching, result.Outcome)
}
