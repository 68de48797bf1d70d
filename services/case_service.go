package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"legal_diary/models"

	"gorm.io/gorm"
)

// GenerateCaseNumber generates an internal case number for a firm
// Format: {FIRM_SLUG}-{YEAR}-{SEQUENCE}
// Example: RAO-ASSOCIATES-2026-00042
func GenerateCaseNumber(db *gorm.DB, firmID string) (string, error) {
	var firm models.Firm
	if err := db.First(&firm, "id = ?", firmID).Error; err != nil {
		return "", fmt.Errorf("failed to fetch firm: %w", err)
	}

	prefix := fmt.Sprintf("%s-%d-", strings.ToUpper(firm.Slug), time.Now().Year())

	var maxCase models.Case
	err := db.Where("firm_id = ? AND case_number LIKE ?", firmID, prefix+"%").
		Order("case_number DESC").
		First(&maxCase).Error

	sequence := 1
	if err == nil {
		var parsedSeq int
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(maxCase.CaseNumber, prefix), "%d", &parsedSeq); scanErr == nil {
			sequence = parsedSeq + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to query max case number: %w", err)
	}

	return fmt.Sprintf("%s%05d", prefix, sequence), nil
}

// caseNumberTaken reports whether the firm already uses number
func caseNumberTaken(db *gorm.DB, firmID, number string) (bool, error) {
	var count int64
	err := db.Model(&models.Case{}).
		Where("firm_id = ? AND case_number = ?", firmID, number).
		Count(&count).Error
	return count > 0, err
}

// CaseInput carries the editable fields of a case
type CaseInput struct {
	CaseNumber  string
	Title       string
	CaseType    string
	Description string
	ClientName  string
	ClientEmail string
	ClientPhone string
	Priority    string
	CourtName   string
	CourtHall   string
	JudgeName   string
}

// CreateCase registers a case in the creator's firm. A blank case number is
// generated. Advocates are assigned to the cases they create.
func CreateCase(ctx context.Context, db *gorm.DB, creator *models.User, in CaseInput) (*models.Case, error) {
	if !creator.HasFirm() {
		return nil, fmt.Errorf("%w: user has no firm", ErrForbidden)
	}
	firmID := *creator.FirmID

	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.ClientName) == "" {
		return nil, validationErrorf("title and client name are required")
	}
	if in.Priority != "" && !models.IsValidCasePriority(in.Priority) {
		return nil, validationErrorf("invalid priority %q", in.Priority)
	}

	c := &models.Case{
		FirmID:      firmID,
		CaseNumber:  strings.TrimSpace(in.CaseNumber),
		Title:       strings.TrimSpace(in.Title),
		CaseType:    in.CaseType,
		Description: in.Description,
		ClientName:  strings.TrimSpace(in.ClientName),
		ClientEmail: ptrIfNotEmpty(in.ClientEmail),
		ClientPhone: ptrIfNotEmpty(in.ClientPhone),
		Priority:    in.Priority,
		CourtName:   in.CourtName,
		CourtHall:   ptrIfNotEmpty(in.CourtHall),
		JudgeName:   ptrIfNotEmpty(in.JudgeName),
		CreatedByID: creator.ID,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.CaseNumber == "" {
			number, err := GenerateCaseNumber(tx, firmID)
			if err != nil {
				return err
			}
			c.CaseNumber = number
		}

		taken, err := caseNumberTaken(tx, firmID, c.CaseNumber)
		if err != nil {
			return fmt.Errorf("failed to check case number uniqueness: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: case number %s already exists", ErrConflict, c.CaseNumber)
		}

		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}

		if creator.Role == models.RoleAdvocate {
			assignment := &models.CaseAssignment{CaseID: c.ID, UserID: creator.ID, AssignedByID: &creator.ID}
			if err := tx.Create(assignment).Error; err != nil {
				return fmt.Errorf("failed to assign creator: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CaseFilters narrows a case listing
type CaseFilters struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// ListCases returns the visible cases matching filters and the total count
func ListCases(ctx context.Context, db *gorm.DB, scope *AccessScope, filters CaseFilters) ([]models.Case, int64, error) {
	filters.Page, filters.PageSize = NormalizePage(filters.Page, filters.PageSize)

	query := scope.CaseQuery(db.WithContext(ctx))
	if filters.Status != "" {
		if !models.IsValidCaseStatus(filters.Status) {
			return nil, 0, validationErrorf("invalid status %q", filters.Status)
		}
		query = query.Where("cases.status = ?", filters.Status)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(cases.case_number) LIKE ? OR LOWER(cases.title) LIKE ? OR LOWER(cases.client_name) LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cases []models.Case
	offset := (filters.Page - 1) * filters.PageSize
	err := query.Order("cases.created_at DESC").Offset(offset).Limit(filters.PageSize).Find(&cases).Error
	return cases, total, err
}

// GetCase loads a visible case with its assignments and AI summary
func GetCase(ctx context.Context, db *gorm.DB, scope *AccessScope, caseID string) (*models.Case, error) {
	var c models.Case
	err := scope.CaseQuery(db.WithContext(ctx)).
		Preload("Assignments.User").
		Preload("AISummary").
		Where("cases.id = ?", caseID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpdateCaseStatus moves a visible case to a new status
func UpdateCaseStatus(ctx context.Context, db *gorm.DB, scope *AccessScope, caseID, status string) (*models.Case, error) {
	if !models.IsValidCaseStatus(status) {
		return nil, validationErrorf("invalid status %q", status)
	}
	c, err := scope.FindCase(db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(c).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}
	c.Status = status
	return c, nil
}

// DeleteCase removes a case and everything hanging off it: hearings with
// their reminders and syncs, documents with their stored objects,
// assignments and the AI summary. Admin only.
func DeleteCase(ctx context.Context, db *gorm.DB, store ObjectStore, scope *AccessScope, caseID string) (*models.Case, error) {
	if !scope.IsAdmin() {
		return nil, ErrForbidden
	}
	c, err := scope.FindCase(db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}

	var storageKeys []string
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hearingIDs []string
		if err := tx.Model(&models.Hearing{}).Where("case_id = ?", c.ID).Pluck("id", &hearingIDs).Error; err != nil {
			return err
		}
		if len(hearingIDs) > 0 {
			if err := tx.Where("hearing_id IN ?", hearingIDs).Delete(&models.Reminder{}).Error; err != nil {
				return err
			}
			if err := tx.Where("hearing_id IN ?", hearingIDs).Delete(&models.CalendarSync{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("case_id = ?", c.ID).Delete(&models.Hearing{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Document{}).Where("case_id = ?", c.ID).Pluck("storage_key", &storageKeys).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", c.ID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", c.ID).Delete(&models.CaseAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", c.ID).Delete(&models.AISummary{}).Error; err != nil {
			return err
		}
		return tx.Delete(c).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete case: %w", err)
	}

	deleteStoredObjects(ctx, store, storageKeys)
	return c, nil
}

// AssignCase gives an advocate of the same firm access to a case. Admin only.
func AssignCase(ctx context.Context, db *gorm.DB, scope *AccessScope, caseID, userID string) (*models.CaseAssignment, error) {
	if !scope.IsAdmin() {
		return nil, ErrForbidden
	}
	c, err := scope.FindCase(db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = db.WithContext(ctx).Where("id = ? AND firm_id = ?", userID, c.FirmID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErrorf("user is not a member of this firm")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, validationErrorf("user is inactive")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.CaseAssignment{}).
		Where("case_id = ? AND user_id = ?", c.ID, user.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: user is already assigned to this case", ErrConflict)
	}

	assignment := &models.CaseAssignment{
		CaseID:       c.ID,
		UserID:       user.ID,
		AssignedByID: &scope.UserID,
		User:         &user,
	}
	if err := db.WithContext(ctx).Omit("User").Create(assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to assign case: %w", err)
	}
	return assignment, nil
}

// UnassignCase revokes a user's access to a case. Admin only.
func UnassignCase(ctx context.Context, db *gorm.DB, scope *AccessScope, caseID, userID string) error {
	if !scope.IsAdmin() {
		return ErrForbidden
	}
	c, err := scope.FindCase(db.WithContext(ctx), caseID)
	if err != nil {
		return err
	}

	result := db.WithContext(ctx).Where("case_id = ? AND user_id = ?", c.ID, userID).Delete(&models.CaseAssignment{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
