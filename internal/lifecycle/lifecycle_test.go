package lifecycle

import (
	"context"
	"testing"
	"time"

	"anonrelay/internal/gateway"
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
	set   map[uint]*time.Time
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
func (s *userRepoStub) SetPremium(_ context.Context, userID uint, expiry *time.Time) error {
	if s.set == nil {
		s.set = make(map[uint]*time.Time)
	}
	s.set[userID] = expiry
	s.users[userID].IsPremium = expiry != nil
	s.users[userID].PremiumExpiry = expiry
	return nil
}
func (s *userRepoStub) SetOnline(context.Context, uint, bool) error       { return nil }
func (s *userRepoStub) MarkAllOffline(context.Context) error              { return nil }
func (s *userRepoStub) IncrementReferralCount(context.Context, uint) error { return nil }
func (s *userRepoStub) List(_ context.Context, _, _ int) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *userRepoStub) Count(context.Context) (int64, error) { return int64(len(s.users)), nil }
func (s *userRepoStub) CountOnline(context.Context) (int64, error) {
	var n int64
	for _, u := range s.users {
		if u.IsOnline {
			n++
		}
	}
	return n, nil
}
func (s *userRepoStub) CountPremium(context.Context) (int64, error) {
	var n int64
	for _, u := range s.users {
		if u.IsPremium {
			n++
		}
	}
	return n, nil
}

type fakeSender struct {
	sent []uint
}

func (f *fakeSender) SendText(_ context.Context, userID uint, _ string) error {
	f.sent = append(f.sent, userID)
	return nil
}
func (f *fakeSender) SendMedia(context.Context, uint, gateway.MediaType, string, string) error {
	return nil
}
func (f *fakeSender) SendToModerator(context.Context, string) error { return nil }

func setupController(t *testing.T, users map[uint]*models.User) (*Controller, *userRepoStub, *fakeSender, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	userRepo := &userRepoStub{users: users}
	sender := &fakeSender{}
	p := pool.New()
	q := queue.New(repository.NewQueueRepository(db))
	rooms := roommgr.New(repository.NewRoomRepository(db))
	roomRepo := repository.NewRoomRepository(db)
	pr := presence.NewTracker(nil)

	c := New(Config{RoomRetention: 30 * 24 * time.Hour}, userRepo, p, q, rooms, roomRepo, sender, pr)
	return c, userRepo, sender, mock
}

func TestController_ExpirySweep_DowngradesExpiredPremium(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	users := map[uint]*models.User{
		1: {UserID: 1, IsPremium: true, PremiumExpiry: &past},
		2: {UserID: 2, IsPremium: false},
	}
	c, userRepo, sender, _ := setupController(t, users)

	c.expirySweep(context.Background())

	assert.False(t, userRepo.users[1].IsPremium)
	assert.Nil(t, userRepo.users[1].PremiumExpiry)
	assert.Contains(t, sender.sent, uint(1))
	assert.NotContains(t, sender.sent, uint(2))
}

func TestController_ExpirySweep_LeavesActivePremiumAlone(t *testing.T) {
	future := time.Now().Add(time.Hour)
	users := map[uint]*models.User{
		1: {UserID: 1, IsPremium: true, PremiumExpiry: &future},
	}
	c, userRepo, sender, _ := setupController(t, users)

	c.expirySweep(context.Background())

	assert.True(t, userRepo.users[1].IsPremium)
	assert.Empty(t, sender.sent)
}

func TestController_BindingReconcile_RunsAllSweeps(t *testing.T) {
	c, _, _, mock := setupController(t, map[uint]*models.User{})

	mock.ExpectExec(`UPDATE rooms SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM user_room_bindings`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "rooms"`).WillReturnResult(sqlmock.NewResult(0, 0))

	c.bindingReconcile(context.Background())
}

func TestController_StartStop_ExitsCleanly(t *testing.T) {
	c, _, _, _ := setupController(t, map[uint]*models.User{})
	c.cfg.ExpirySweepInterval = 0
	c.cfg.QueueScanInterval = 0
	c.cfg.BindingReconcileInterval = 0

	ctx := context.Background()
	c.Start(ctx)
	c.Stop()
}
