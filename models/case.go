package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status constants
const (
	CaseStatusActive          = "ACTIVE"
	CaseStatusPendingJudgment = "PENDING_JUDGMENT"
	CaseStatusConcluded       = "CONCLUDED"
	CaseStatusAppeal          = "APPEAL"
	CaseStatusDismissed       = "DISMISSED"
)

// Case priority constants
const (
	CasePriorityLow    = "LOW"
	CasePriorityMedium = "MEDIUM"
	CasePriorityHigh   = "HIGH"
	CasePriorityUrgent = "URGENT"
)

// Case represents a legal matter tracked by a firm
type Case struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirmID string `gorm:"type:uuid;not null;uniqueIndex:idx_firm_case_number;index:idx_case_firm_status" json:"firm_id"`
	Firm   *Firm  `gorm:"foreignKey:FirmID" json:"-"`

	CaseNumber  string `gorm:"not null;uniqueIndex:idx_firm_case_number" json:"case_number"`
	Title       string `gorm:"not null" json:"title"`
	CaseType    string `json:"case_type,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Client info
	ClientName  string  `gorm:"not null" json:"client_name"`
	ClientEmail *string `json:"client_email,omitempty"`
	ClientPhone *string `json:"client_phone,omitempty"`

	Status   string `gorm:"not null;default:ACTIVE;index:idx_case_firm_status" json:"status"`
	Priority string `gorm:"not null;default:MEDIUM" json:"priority"`

	// Court metadata
	CourtName string  `json:"court_name,omitempty"`
	CourtHall *string `json:"court_hall,omitempty"`
	JudgeName *string `json:"judge_name,omitempty"`

	CreatedByID string `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"-"`

	Hearings    []Hearing        `gorm:"foreignKey:CaseID" json:"hearings,omitempty"`
	Documents   []Document       `gorm:"foreignKey:CaseID" json:"documents,omitempty"`
	Assignments []CaseAssignment `gorm:"foreignKey:CaseID" json:"assignments,omitempty"`
	AISummary   *AISummary       `gorm:"foreignKey:CaseID" json:"ai_summary,omitempty"`
}

// BeforeCreate hook to generate UUID and apply defaults
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CaseStatusActive
	}
	if c.Priority == "" {
		c.Priority = CasePriorityMedium
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// IsClosed reports whether the case no longer expects hearings
func (c *Case) IsClosed() bool {
	return c.Status == CaseStatusConcluded || c.Status == CaseStatusDismissed
}

// IsValidCaseStatus checks if the status is valid
func IsValidCaseStatus(status string) bool {
	switch status {
	case CaseStatusActive, CaseStatusPendingJudgment, CaseStatusConcluded, CaseStatusAppeal, CaseStatusDismissed:
		return true
	}
	return false
}

// IsValidCasePriority checks if the priority is valid
func IsValidCasePriority(priority string) bool {
	switch priority {
	case CasePriorityLow, CasePriorityMedium, CasePriorityHigh, CasePriorityUrgent:
		return true
	}
	return false
}

// CaseAssignment gives an advocate access to a case. The composite primary
// key keeps a user to at most one row per case.
type CaseAssignment struct {
	CaseID       string    `gorm:"type:uuid;primaryKey" json:"case_id"`
	UserID       string    `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	AssignedByID *string   `gorm:"type:uuid" json:"assigned_by_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for CaseAssignment model
func (CaseAssignment) TableName() string {
	return "case_assignments"
}
