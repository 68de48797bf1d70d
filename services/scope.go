package services

import (
	"context"
	"errors"
	"fmt"

	"legal_diary/models"

	"gorm.io/gorm"
)

// AccessScope is the set of cases a user may see. Admins see every case of
// their firm; advocates see only cases they are assigned to. Every read of
// cases or hearings goes through a scope.
type AccessScope struct {
	UserID string
	FirmID string
	Role   string

	caseIDs map[string]struct{}
	// ordered copy of caseIDs for query building
	caseIDList []string
}

// NewAccessScope builds a scope from a user and the ids of the cases the user
// is assigned to. assignedCaseIDs is ignored for admins.
func NewAccessScope(user *models.User, assignedCaseIDs []string) (*AccessScope, error) {
	if user == nil {
		return nil, validationErrorf("user is required")
	}
	if !models.IsValidRole(user.Role) {
		return nil, validationErrorf("unknown role %q", user.Role)
	}

	scope := &AccessScope{
		UserID:  user.ID,
		Role:    user.Role,
		caseIDs: make(map[string]struct{}),
	}
	if !user.HasFirm() {
		return scope, nil
	}
	scope.FirmID = *user.FirmID

	if user.Role == models.RoleAdvocate {
		for _, id := range assignedCaseIDs {
			if _, seen := scope.caseIDs[id]; seen {
				continue
			}
			scope.caseIDs[id] = struct{}{}
			scope.caseIDList = append(scope.caseIDList, id)
		}
	}

	return scope, nil
}

// LoadAccessScope reads the user's assignments and builds their scope
func LoadAccessScope(ctx context.Context, db *gorm.DB, user *models.User) (*AccessScope, error) {
	if user == nil {
		return nil, validationErrorf("user is required")
	}

	var caseIDs []string
	if user.Role == models.RoleAdvocate && user.HasFirm() {
		err := db.WithContext(ctx).
			Model(&models.CaseAssignment{}).
			Joins("JOIN cases ON cases.id = case_assignments.case_id").
			Where("case_assignments.user_id = ? AND cases.firm_id = ?", user.ID, *user.FirmID).
			Pluck("case_assignments.case_id", &caseIDs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load case assignments: %w", err)
		}
	}

	return NewAccessScope(user, caseIDs)
}

// IsEmpty reports whether the scope can never match anything
func (s *AccessScope) IsEmpty() bool {
	if s.FirmID == "" {
		return true
	}
	return !s.IsAdmin() && len(s.caseIDs) == 0
}

// IsAdmin reports whether the scope covers the whole firm
func (s *AccessScope) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// CanAccessCase reports whether a case belonging to firmID is visible
func (s *AccessScope) CanAccessCase(caseID, firmID string) bool {
	if s.FirmID == "" || firmID != s.FirmID {
		return false
	}
	if s.IsAdmin() {
		return true
	}
	_, ok := s.caseIDs[caseID]
	return ok
}

// FilterCases returns the visible subset of cases, keeping input order
func (s *AccessScope) FilterCases(cases []models.Case) []models.Case {
	visible := make([]models.Case, 0, len(cases))
	for _, c := range cases {
		if s.CanAccessCase(c.ID, c.FirmID) {
			visible = append(visible, c)
		}
	}
	return visible
}

// FilterHearings returns the visible subset of hearings, keeping input order.
// A hearing's firm is taken from its preloaded Case; hearings without one
// are dropped since their firm cannot be checked.
func (s *AccessScope) FilterHearings(hearings []models.Hearing) []models.Hearing {
	visible := make([]models.Hearing, 0, len(hearings))
	for _, h := range hearings {
		if h.Case == nil {
			continue
		}
		if h.Case.ID != h.CaseID {
			continue
		}
		if s.CanAccessCase(h.CaseID, h.Case.FirmID) {
			visible = append(visible, h)
		}
	}
	return visible
}

// CaseQuery returns a query over the cases table restricted to the scope
func (s *AccessScope) CaseQuery(db *gorm.DB) *gorm.DB {
	q := db.Model(&models.Case{})
	if s.IsEmpty() {
		return q.Where("1 = 0")
	}
	q = q.Where("cases.firm_id = ?", s.FirmID)
	if !s.IsAdmin() {
		q = q.Where("cases.id IN ?", s.caseIDList)
	}
	return q
}

// HearingQuery returns a query over the hearings table restricted to the scope
func (s *AccessScope) HearingQuery(db *gorm.DB) *gorm.DB {
	q := db.Model(&models.Hearing{})
	if s.IsEmpty() {
		return q.Where("1 = 0")
	}
	visibleCases := s.CaseQuery(db.Session(&gorm.Session{NewDB: true})).Select("cases.id")
	return q.Where("hearings.case_id IN (?)", visibleCases)
}

// FindCase loads a single visible case or returns ErrNotFound
func (s *AccessScope) FindCase(db *gorm.DB, caseID string) (*models.Case, error) {
	var c models.Case
	err := s.CaseQuery(db).Where("cases.id = ?", caseID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindHearing loads a single visible hearing with its case and sync record
func (s *AccessScope) FindHearing(db *gorm.DB, hearingID string) (*models.Hearing, error) {
	var h models.Hearing
	err := s.HearingQuery(db).
		Preload("Case").
		Preload("CalendarSync").
		Where("hearings.id = ?", hearingID).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}
