package scheduler

import (
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ReminderScheduler nudges admins about applications left pending too long.
//
// Each run looks for applications submitted more than staleAfter ago that
// are still pending and hands them to the notification service, which
// writes one reminder per admin and application. Runs do not remember what
// they already reported: an application keeps showing up in every run until
// someone decides it.
type ReminderScheduler struct {
	cron          *cron.Cron
	schedule      string
	staleAfter    time.Duration
	appRepo       repository.ApplicationRepository
	notifications service.NotificationService
	now           func() time.Time
}

// NewReminderScheduler takes a standard five-field cron expression,
// for example "0 9 * * *" for every morning at nine.
func NewReminderScheduler(
	schedule string,
	staleAfter time.Duration,
	appRepo repository.ApplicationRepository,
	notifications service.NotificationService,
) *ReminderScheduler {
	return &ReminderScheduler{
		cron:          cron.New(),
		schedule:      schedule,
		staleAfter:    staleAfter,
		appRepo:       appRepo,
		notifications: notifications,
		now:           time.Now,
	}
}

func (s *ReminderScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(); err != nil {
			logger.Error("Pending application reminder run failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for pending reminders", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Pending application reminder scheduler started", map[string]interface{}{
		"schedule":    s.schedule,
		"stale_after": s.staleAfter.String(),
	})
	return nil
}

// RunOnce sends one round of reminders and returns how many were created.
func (s *ReminderScheduler) RunOnce() (int, error) {
	cutoff := s.now().Add(-s.staleAfter)
	stale, err := s.appRepo.FindPendingBefore(cutoff)
	if err != nil {
		return 0, err
	}

	sent, err := s.notifications.NotifyAdminsOfStaleApplications(stale)
	if err != nil {
		return 0, err
	}

	logger.Info("Pending application reminders sent", map[string]interface{}{
		"stale_applications": len(stale),
		"notifications":      sent,
	})
	return sent, nil
}

// Stop blocks until a run in progress has finished.
func (s *ReminderScheduler) Stop() {
	logger.Info("Stopping reminder scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Reminder scheduler stopped")
}
