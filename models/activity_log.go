package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityAction represents the type of operation performed
type ActivityAction string

const (
	ActivityCreate     ActivityAction = "CREATE"
	ActivityUpdate     ActivityAction = "UPDATE"
	ActivityDelete     ActivityAction = "DELETE"
	ActivityLogin      ActivityAction = "LOGIN"
	ActivityLogout     ActivityAction = "LOGOUT"
	ActivitySync       ActivityAction = "SYNC"
	ActivityConnect    ActivityAction = "CONNECT"
	ActivityDisconnect ActivityAction = "DISCONNECT"
	ActivityAssign     ActivityAction = "ASSIGN"
	ActivityUnassign   ActivityAction = "UNASSIGN"
)

// ActivityLog is an append-only record of something a user did
type ActivityLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	FirmID   *string `gorm:"type:uuid;index" json:"firm_id,omitempty"`
	UserID   *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	UserName string  `json:"user_name"` // Denormalized for historical accuracy

	ResourceType string         `gorm:"not null;index:idx_activity_resource" json:"resource_type"`
	ResourceID   string         `gorm:"index:idx_activity_resource" json:"resource_id"`
	ResourceName string         `json:"resource_name,omitempty"`
	Action       ActivityAction `gorm:"not null;index" json:"action"`
	Description  string         `gorm:"type:text" json:"description,omitempty"`
}

// BeforeCreate generates UUID
func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate keeps activity rows immutable
func (a *ActivityLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// TableName specifies the table name
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Firm{},
		&User{},
		&Session{},
		&Case{},
		&CaseAssignment{},
		&Hearing{},
		&Reminder{},
		&CalendarSync{},
		&GoogleCredential{},
		&Document{},
		&AISummary{},
		&ActivityLog{},
	}
}
