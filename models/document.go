package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a file uploaded against a case
type Document struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	FirmID string `gorm:"type:uuid;not null;index" json:"firm_id"`
	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	FileName         string `gorm:"not null" json:"file_name"`
	FileOriginalName string `gorm:"not null" json:"file_original_name"`
	StorageKey       string `gorm:"not null" json:"-"`
	MimeType         string `json:"mime_type"`
	FileSize         int64  `json:"file_size"`

	UploadedByID string `gorm:"type:uuid;not null" json:"uploaded_by_id"`
}

// BeforeCreate hook to generate UUID
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "case_documents"
}

// AISummary is the latest machine-generated analysis of a case
type AISummary struct {
	ID            string    `gorm:"type:uuid;primarykey" json:"id"`
	CaseID        string    `gorm:"type:uuid;uniqueIndex;not null" json:"case_id"`
	Summary       string    `gorm:"type:text;not null" json:"summary"`
	Model         string    `json:"model"`
	GeneratedAt   time.Time `json:"generated_at"`
	GeneratedByID string    `gorm:"type:uuid" json:"generated_by_id"`
}

// BeforeCreate hook to generate UUID
func (a *AISummary) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for AISummary model
func (AISummary) TableName() string {
	return "ai_summaries"
}
