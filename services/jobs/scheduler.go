package jobs

import (
	"fmt"
	"log"
	"time"

	"legal_diary/config"
	"legal_diary/services"
	"legal_diary/services/judicial"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SessionCleanupSchedule runs the expired session sweep
const SessionCleanupSchedule = "@hourly"

// NewScheduler registers the background jobs without starting them
func NewScheduler(database *gorm.DB, cfg *config.Config, cal *judicial.Calendar, mailer services.Mailer) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("[CRON] Unknown timezone %q, using UTC", cfg.Timezone)
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(cfg.ReminderSchedule, func() {
		log.Println("[CRON] Running hearing reminders...")
		if _, err := SendHearingReminders(database, cal, mailer, time.Now().UTC()); err != nil {
			log.Printf("[JOB] Hearing reminders failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.ReminderSchedule, err)
	}

	if _, err := c.AddFunc(SessionCleanupSchedule, func() {
		CleanupSessions(database)
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// StartScheduler registers and starts the background jobs
func StartScheduler(database *gorm.DB, cfg *config.Config, cal *judicial.Calendar, mailer services.Mailer) (*cron.Cron, error) {
	c, err := NewScheduler(database, cfg, cal, mailer)
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("[CRON] Scheduler started (reminders: %q, session cleanup: %q)", cfg.ReminderSchedule, SessionCleanupSchedule)
	return c, nil
}

// CleanupSessions deletes expired sessions
func CleanupSessions(database *gorm.DB) {
	n, err := services.CleanupExpiredSessions(database)
	if err != nil {
		log.Printf("[JOB] Session cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[JOB] Removed %d expired sessions", n)
	}
}
