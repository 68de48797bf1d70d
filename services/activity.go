package services

import (
	"context"
	"fmt"
	"log"

	"legal_diary/models"

	"gorm.io/gorm"
)

// Activity resource types
const (
	ResourceCase       = "case"
	ResourceHearing    = "hearing"
	ResourceUser       = "user"
	ResourceDocument   = "document"
	ResourceCalendar   = "calendar"
	ResourceAISummary  = "ai_summary"
	ResourceAssignment = "assignment"
)

// Listing page sizes
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ActivityEntry is one thing a user did
type ActivityEntry struct {
	FirmID       string
	UserID       string
	UserName     string
	Action       models.ActivityAction
	ResourceType string
	ResourceID   string
	ResourceName string
	Description  string
}

// NewActivityEntry fills the actor fields from user
func NewActivityEntry(user *models.User, action models.ActivityAction, resourceType, resourceID, resourceName, description string) ActivityEntry {
	entry := ActivityEntry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Description:  description,
	}
	if user != nil {
		entry.UserID = user.ID
		entry.UserName = user.Name
		if user.HasFirm() {
			entry.FirmID = *user.FirmID
		}
	}
	return entry
}

// ActivityLogger records user activity
type ActivityLogger interface {
	Log(ctx context.Context, entry ActivityEntry) error
}

// GormActivityLogger writes entries to activity_logs
type GormActivityLogger struct {
	db *gorm.DB
}

// NewGormActivityLogger creates a database backed logger
func NewGormActivityLogger(db *gorm.DB) *GormActivityLogger {
	return &GormActivityLogger{db: db}
}

func (l *GormActivityLogger) Log(ctx context.Context, entry ActivityEntry) error {
	row := models.ActivityLog{
		FirmID:       ptrIfNotEmpty(entry.FirmID),
		UserID:       ptrIfNotEmpty(entry.UserID),
		UserName:     entry.UserName,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Action:       entry.Action,
		Description:  entry.Description,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

// SafeActivityLogger never fails its caller: errors and panics from the
// wrapped logger are logged and dropped
type SafeActivityLogger struct {
	next ActivityLogger
}

// NewSafeActivityLogger wraps next
func NewSafeActivityLogger(next ActivityLogger) *SafeActivityLogger {
	return &SafeActivityLogger{next: next}
}

// Log records entry, best effort
func (l *SafeActivityLogger) Log(ctx context.Context, entry ActivityEntry) {
	if l == nil || l.next == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ACTIVITY] Recovered from panic while logging %s %s: %v", entry.Action, entry.ResourceType, r)
		}
	}()
	if err := l.next.Log(ctx, entry); err != nil {
		log.Printf("[ACTIVITY] Failed to record %s %s %s: %v", entry.Action, entry.ResourceType, entry.ResourceID, err)
	}
}

// ListActivity returns a page of a firm's activity, newest first
func ListActivity(db *gorm.DB, firmID string, page, pageSize int) ([]models.ActivityLog, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := db.Model(&models.ActivityLog{}).Where("firm_id = ?", firmID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ActivityLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// NormalizePage applies the default page size and clamps out of range values
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
