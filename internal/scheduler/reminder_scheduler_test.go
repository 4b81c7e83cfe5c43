package scheduler

import (
	"testing"
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	"github.com/grocerly/grocerly-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderScheduler_RunOnce(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	apps := repository.NewApplicationRepository(testDB)
	users := repository.NewUserRepository(testDB)
	notifRepo := repository.NewNotificationRepository(testDB)
	notifications := service.NewNotificationService(notifRepo, users)

	admin := &model.User{Email: "admin@example.com", PasswordHash: "x", Role: model.RoleAdmin, Status: model.UserStatusActive}
	require.NoError(t, users.Create(admin))

	now := time.Now().UTC()
	for i, age := range []time.Duration{72 * time.Hour, time.Hour} {
		app := &model.StoreApplication{
			OwnerName:          "Owner",
			Email:              []string{"old@example.com", "new@example.com"}[i],
			StoreName:          "Store",
			StoreType:          model.StoreTypeGeneral,
			IDType:             model.IDTypeNationalID,
			VerificationStatus: model.VerificationStatusPending,
			TermsAcceptedAt:    now,
			SubmittedAt:        now.Add(-age),
		}
		require.NoError(t, apps.Create(app))
	}

	s := NewReminderScheduler("0 9 * * *", 48*time.Hour, apps, notifications)
	s.now = func() time.Time { return now }

	sent, err := s.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	unread, err := notifRepo.UnreadCount(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestReminderScheduler_InvalidSchedule(t *testing.T) {
	s := NewReminderScheduler("not a cron", time.Hour, nil, nil)
	assert.Error(t, s.Start())
}
