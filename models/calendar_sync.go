package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Calendar sync status constants
const (
	SyncStatusSynced  = "SYNCED"
	SyncStatusFailed  = "FAILED"
	SyncStatusPending = "PENDING"
)

// CalendarSync maps a hearing to the event created for it in an external
// calendar. At most one row exists per hearing.
type CalendarSync struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	HearingID string `gorm:"type:uuid;uniqueIndex;not null" json:"hearing_id"`
	// User whose calendar holds the event
	UserID          string     `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderEventID string     `gorm:"not null" json:"provider_event_id"`
	Status          string     `gorm:"not null;default:PENDING;index" json:"status"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	LastError       *string    `gorm:"type:text" json:"last_error,omitempty"`
}

// BeforeCreate hook to generate UUID
func (s *CalendarSync) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for CalendarSync model
func (CalendarSync) TableName() string {
	return "calendar_syncs"
}

// GoogleCredential holds a user's Google OAuth tokens. Token columns hold
// ciphertext; the credential store decrypts them on read.
type GoogleCredential struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID       string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	AccountEmail string    `json:"account_email,omitempty"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	TokenType    string    `json:"-"`
	Expiry       time.Time `json:"expiry"`
}

// BeforeCreate hook to generate UUID
func (g *GoogleCredential) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GoogleCredential model
func (GoogleCredential) TableName() string {
	return "google_credentials"
}
