package jobs

import (
	"fmt"
	"log"
	"time"

	"legal_diary/models"
	"legal_diary/services"
	"legal_diary/services/judicial"

	"gorm.io/gorm"
)

// ReminderStats summarises one run of the reminder job
type ReminderStats struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

// SendHearingReminders emails every due, unsent reminder to the case creator
// and assigned advocates, then stamps sent_at. Reminders of hearings that
// will no longer take place are stamped without sending. When cal is set the
// email warns about hearings listed on closed court days.
func SendHearingReminders(database *gorm.DB, cal *judicial.Calendar, mailer services.Mailer, now time.Time) (ReminderStats, error) {
	var stats ReminderStats

	var reminders []models.Reminder
	err := database.Preload("Hearing.Case").
		Where("sent_at IS NULL AND remind_at <= ?", now).
		Order("remind_at ASC").
		Find(&reminders).Error
	if err != nil {
		return stats, fmt.Errorf("failed to fetch due reminders: %w", err)
	}
	stats.Due = len(reminders)
	log.Printf("[JOB] Found %d hearing reminders due", stats.Due)

	for _, r := range reminders {
		h := r.Hearing
		if h == nil || h.Case == nil || !h.IsActive() || h.HearingDate.Before(models.DateOnly(now)) {
			stats.Skipped++
			markReminderSent(database, &r, now)
			continue
		}

		recipients, err := reminderRecipients(database, h.Case)
		if err != nil {
			log.Printf("[JOB] Failed to load recipients for hearing %s: %v", h.ID, err)
			stats.Failed++
			continue
		}

		delivered := 0
		for _, user := range recipients {
			email, err := services.BuildHearingReminderEmail(user.Email, reminderData(user, h, cal))
			if err == nil {
				err = mailer.Send(email)
			}
			if err != nil {
				log.Printf("[JOB] Failed to send reminder for hearing %s to %s: %v", h.ID, user.Email, err)
				continue
			}
			delivered++
		}

		// Retry on the next run only when nobody could be reached
		if delivered == 0 && len(recipients) > 0 {
			stats.Failed++
			continue
		}
		markReminderSent(database, &r, now)
		stats.Sent++
	}

	log.Printf("[JOB] Hearing reminders completed: %d sent, %d skipped, %d failed", stats.Sent, stats.Skipped, stats.Failed)
	return stats, nil
}

func markReminderSent(database *gorm.DB, r *models.Reminder, now time.Time) {
	if err := database.Model(&models.Reminder{}).Where("id = ?", r.ID).Update("sent_at", now).Error; err != nil {
		log.Printf("[JOB] Failed to stamp reminder %s: %v", r.ID, err)
	}
}

// reminderRecipients returns the active creator and assignees of a case, once each
func reminderRecipients(database *gorm.DB, c *models.Case) ([]models.User, error) {
	var users []models.User
	err := database.
		Where("is_active = ? AND firm_id = ?", true, c.FirmID).
		Where("id = ? OR id IN (?)", c.CreatedByID,
			database.Model(&models.CaseAssignment{}).Select("user_id").Where("case_id = ?", c.ID)).
		Order("email ASC").
		Find(&users).Error
	return users, err
}

func reminderData(user models.User, h *models.Hearing, cal *judicial.Calendar) services.HearingReminderData {
	data := services.HearingReminderData{
		RecipientName: user.Name,
		CaseNumber:    h.Case.CaseNumber,
		CaseTitle:     h.Case.Title,
		CourtName:     h.Case.CourtName,
		HearingDate:   h.HearingDate.Format(models.DateLayout),
		HearingType:   h.HearingType,
	}
	if h.HearingTime != nil {
		data.HearingTime = *h.HearingTime
	}
	if h.CourtRoom != nil {
		data.CourtRoom = *h.CourtRoom
	}

	if cal == nil {
		return data
	}
	// Warn when the hearing lands on a day the court calendar marks as closed
	if status := cal.Resolve(h.HearingDate); !status.IsWorkingDay {
		data.DayLabel = status.Label
	}
	return data
}
