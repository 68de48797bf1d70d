package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legal_diary/models"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// ReminderHourUTC is the hour on the day before a hearing when its reminder is due
const ReminderHourUTC = 9

var notesPolicy = bluemonday.StrictPolicy()

// HearingInput carries the editable fields of a hearing. Empty strings and
// nil pointers leave a field unset on create and unchanged on update. A
// pointer to "" clears the optional field.
type HearingInput struct {
	HearingDate string // YYYY-MM-DD
	HearingTime *string
	HearingType string
	CourtRoom   *string
	Notes       *string
	Status      string
}

// ReminderTime returns when the reminder for a hearing on day is due
func ReminderTime(day time.Time) time.Time {
	d := models.DateOnly(day).AddDate(0, 0, -1)
	return d.Add(ReminderHourUTC * time.Hour)
}

// SanitizeNotes strips all markup from free text notes
func SanitizeNotes(notes string) string {
	return strings.TrimSpace(notesPolicy.Sanitize(notes))
}

func parseHearingDate(s string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, validationErrorf("hearing date must be YYYY-MM-DD")
	}
	return d, nil
}

// applyHearingInput copies the given fields of in onto h
func applyHearingInput(h *models.Hearing, in HearingInput) error {
	if in.HearingDate != "" {
		d, err := parseHearingDate(in.HearingDate)
		if err != nil {
			return err
		}
		h.HearingDate = d
	}
	if in.HearingTime != nil {
		h.HearingTime = nil
		if t := strings.TrimSpace(*in.HearingTime); t != "" {
			if _, err := ParseHearingTime(t); err != nil {
				return err
			}
			h.HearingTime = &t
		}
	}
	if in.HearingType != "" {
		if !models.IsValidHearingType(in.HearingType) {
			return validationErrorf("invalid hearing type %q", in.HearingType)
		}
		h.HearingType = in.HearingType
	}
	if in.Status != "" {
		if !models.IsValidHearingStatus(in.Status) {
			return validationErrorf("invalid hearing status %q", in.Status)
		}
		h.Status = in.Status
	}
	if in.CourtRoom != nil {
		h.CourtRoom = ptrIfNotEmpty(strings.TrimSpace(*in.CourtRoom))
	}
	if in.Notes != nil {
		h.Notes = ptrIfNotEmpty(SanitizeNotes(*in.Notes))
	}
	return nil
}

// ScheduleHearing adds a hearing to a visible case and queues its reminder
func ScheduleHearing(ctx context.Context, db *gorm.DB, scope *AccessScope, caseID string, in HearingInput) (*models.Hearing, error) {
	c, err := scope.FindCase(db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}
	if c.IsClosed() {
		return nil, validationErrorf("case %s is %s", c.CaseNumber, strings.ToLower(c.Status))
	}
	if in.HearingDate == "" {
		return nil, validationErrorf("hearing date is required")
	}

	h := &models.Hearing{
		CaseID:      c.ID,
		CreatedByID: scope.UserID,
	}
	if err := applyHearingInput(h, in); err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(h).Error; err != nil {
			return fmt.Errorf("failed to create hearing: %w", err)
		}
		reminder := &models.Reminder{HearingID: h.ID, RemindAt: ReminderTime(h.HearingDate)}
		if err := tx.Create(reminder).Error; err != nil {
			return fmt.Errorf("failed to create reminder: %w", err)
		}
		h.Reminder = reminder
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.Case = c
	return h, nil
}

// UpdateHearing edits a visible hearing. A new date re-arms the reminder and
// any change to the event fields marks the calendar sync stale.
func UpdateHearing(ctx context.Context, db *gorm.DB, scope *AccessScope, hearingID string, in HearingInput) (*models.Hearing, error) {
	h, err := scope.FindHearing(db.WithContext(ctx), hearingID)
	if err != nil {
		return nil, err
	}
	previousDate := h.HearingDate
	previousEvent := eventFields(h)
	if err := applyHearingInput(h, in); err != nil {
		return nil, err
	}
	eventChanged := eventFields(h) != previousEvent

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(h).Omit("Case", "CalendarSync", "Reminder").Updates(map[string]interface{}{
			"hearing_date": h.HearingDate,
			"hearing_time": h.HearingTime,
			"hearing_type": h.HearingType,
			"court_room":   h.CourtRoom,
			"notes":        h.Notes,
			"status":       h.Status,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update hearing: %w", err)
		}

		if eventChanged {
			if err := MarkSyncStale(tx, h.ID); err != nil {
				return fmt.Errorf("failed to mark sync stale: %w", err)
			}
			if h.CalendarSync != nil && h.CalendarSync.Status == models.SyncStatusSynced {
				h.CalendarSync.Status = models.SyncStatusPending
			}
		}

		if h.HearingDate.Equal(previousDate) {
			return nil
		}
		// Reminder rows are replaced so a sent reminder fires again for the new date
		if err := tx.Where("hearing_id = ?", h.ID).Delete(&models.Reminder{}).Error; err != nil {
			return err
		}
		reminder := &models.Reminder{HearingID: h.ID, RemindAt: ReminderTime(h.HearingDate)}
		if err := tx.Create(reminder).Error; err != nil {
			return fmt.Errorf("failed to reschedule reminder: %w", err)
		}
		h.Reminder = reminder
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// eventFields flattens the fields mirrored into the calendar event
func eventFields(h *models.Hearing) string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return strings.Join([]string{
		h.HearingDate.Format(models.DateLayout), deref(h.HearingTime), h.HearingType, deref(h.CourtRoom), deref(h.Notes),
	}, "\x00")
}

// DeleteHearing removes a visible hearing with its reminder and sync record
func DeleteHearing(ctx context.Context, db *gorm.DB, scope *AccessScope, hearingID string) (*models.Hearing, error) {
	h, err := scope.FindHearing(db.WithContext(ctx), hearingID)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hearing_id = ?", h.ID).Delete(&models.Reminder{}).Error; err != nil {
			return err
		}
		if err := DeleteHearingSync(tx, h.ID); err != nil {
			return err
		}
		return tx.Delete(&models.Hearing{}, "id = ?", h.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete hearing: %w", err)
	}
	return h, nil
}

// ListHearings returns the visible hearings inside r ordered by date then id,
// with case and sync record loaded
func ListHearings(ctx context.Context, db *gorm.DB, scope *AccessScope, r DateRange) ([]models.Hearing, error) {
	var hearings []models.Hearing
	err := scope.HearingQuery(db.WithContext(ctx)).
		Preload("Case").
		Preload("CalendarSync").
		Where("hearings.hearing_date >= ? AND hearings.hearing_date < ?", r.Start, r.EndExclusive()).
		Order("hearings.hearing_date ASC, hearings.id ASC").
		Find(&hearings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hearings: %w", err)
	}
	return hearings, nil
}
