package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hearing type constants
const (
	HearingTypeArguments         = "ARGUMENTS"
	HearingTypeEvidenceRecording = "EVIDENCE_RECORDING"
	HearingTypeFinalHearing      = "FINAL_HEARING"
	HearingTypeInterimHearing    = "INTERIM_HEARING"
	HearingTypeJudgmentDelivery  = "JUDGMENT_DELIVERY"
	HearingTypePreHearing        = "PRE_HEARING"
	HearingTypeOther             = "OTHER"
)

// Hearing status constants
const (
	HearingStatusScheduled = "SCHEDULED"
	HearingStatusPostponed = "POSTPONED"
	HearingStatusCompleted = "COMPLETED"
	HearingStatusCancelled = "CANCELLED"
)

// Hearing is a court date for a case. HearingDate carries date-only
// semantics and is stored at midnight UTC.
type Hearing struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index:idx_hearing_case_date" json:"case_id"`
	Case   *Case  `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	HearingDate time.Time `gorm:"not null;index:idx_hearing_case_date;index" json:"hearing_date"`
	HearingTime *string   `gorm:"size:10" json:"hearing_time,omitempty"` // "14:30" or "2:30 PM"
	HearingType string    `gorm:"not null;default:OTHER" json:"hearing_type"`
	CourtRoom   *string   `json:"court_room,omitempty"`
	Notes       *string   `gorm:"type:text" json:"notes,omitempty"`
	Status      string    `gorm:"not null;default:SCHEDULED;index" json:"status"`

	CreatedByID string `gorm:"type:uuid;not null" json:"created_by_id"`

	Reminder     *Reminder     `gorm:"foreignKey:HearingID" json:"reminder,omitempty"`
	CalendarSync *CalendarSync `gorm:"foreignKey:HearingID" json:"calendar_sync,omitempty"`
}

// BeforeCreate hook to generate UUID and apply defaults
func (h *Hearing) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.HearingType == "" {
		h.HearingType = HearingTypeOther
	}
	if h.Status == "" {
		h.Status = HearingStatusScheduled
	}
	return nil
}

// BeforeSave strips the time of day from HearingDate
func (h *Hearing) BeforeSave(tx *gorm.DB) error {
	if !h.HearingDate.IsZero() {
		h.HearingDate = DateOnly(h.HearingDate)
	}
	return nil
}

// TableName specifies the table name for Hearing model
func (Hearing) TableName() string {
	return "hearings"
}

// DateKey returns the calendar day of the hearing as YYYY-MM-DD
func (h *Hearing) DateKey() string {
	return h.HearingDate.Format(DateLayout)
}

// IsActive reports whether the hearing is still expected to take place
func (h *Hearing) IsActive() bool {
	return h.Status == HearingStatusScheduled || h.Status == HearingStatusPostponed
}

// IsValidHearingType checks if the hearing type is valid
func IsValidHearingType(hearingType string) bool {
	switch hearingType {
	case HearingTypeArguments, HearingTypeEvidenceRecording, HearingTypeFinalHearing,
		HearingTypeInterimHearing, HearingTypeJudgmentDelivery, HearingTypePreHearing, HearingTypeOther:
		return true
	}
	return false
}

// IsValidHearingStatus checks if the hearing status is valid
func IsValidHearingStatus(status string) bool {
	switch status {
	case HearingStatusScheduled, HearingStatusPostponed, HearingStatusCompleted, HearingStatusCancelled:
		return true
	}
	return false
}

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC of its own calendar day
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Reminder is the single pending notification for a hearing
type Reminder struct {
	ID        string     `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	HearingID string     `gorm:"type:uuid;uniqueIndex;not null" json:"hearing_id"`
	RemindAt  time.Time  `gorm:"not null;index" json:"remind_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`

	Hearing *Hearing `gorm:"foreignKey:HearingID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Reminder model
func (Reminder) TableName() string {
	return "reminders"
}
