package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"legal_diary/models"

	"gorm.io/gorm"
)

// HearingWithNeighbors is a hearing plus the dates of the hearings just
// before and after it in the same case
type HearingWithNeighbors struct {
	models.Hearing
	PreviousDate *time.Time `json:"previous_date"`
	NextDate     *time.Time `json:"next_date"`
}

// ComputeNeighbors orders the hearings of one case by date (ties by id) and
// fills in each hearing's previous and next date. Mixing cases is rejected.
func ComputeNeighbors(hearings []models.Hearing) ([]HearingWithNeighbors, error) {
	if len(hearings) == 0 {
		return []HearingWithNeighbors{}, nil
	}

	caseID := hearings[0].CaseID
	for _, h := range hearings {
		if h.CaseID != caseID {
			return nil, validationErrorf("hearings span cases %s and %s", caseID, h.CaseID)
		}
		if h.HearingDate.IsZero() {
			return nil, validationErrorf("hearing %s has no date", h.ID)
		}
	}

	sorted := make([]models.Hearing, len(hearings))
	copy(sorted, hearings)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.HearingDate.Equal(b.HearingDate) {
			return a.HearingDate.Before(b.HearingDate)
		}
		return a.ID < b.ID
	})

	result := make([]HearingWithNeighbors, len(sorted))
	for i, h := range sorted {
		result[i] = HearingWithNeighbors{Hearing: h}
		if i > 0 {
			prev := sorted[i-1].HearingDate
			result[i].PreviousDate = &prev
		}
		if i < len(sorted)-1 {
			next := sorted[i+1].HearingDate
			result[i].NextDate = &next
		}
	}
	return result, nil
}

// ComputeNeighborsByCase partitions hearings by case and applies
// ComputeNeighbors to each partition. Output is grouped by case id ascending.
func ComputeNeighborsByCase(hearings []models.Hearing) ([]HearingWithNeighbors, error) {
	byCase := make(map[string][]models.Hearing)
	for _, h := range hearings {
		if h.CaseID == "" {
			return nil, validationErrorf("hearing %s has no case", h.ID)
		}
		byCase[h.CaseID] = append(byCase[h.CaseID], h)
	}

	caseIDs := make([]string, 0, len(byCase))
	for id := range byCase {
		caseIDs = append(caseIDs, id)
	}
	sort.Strings(caseIDs)

	result := make([]HearingWithNeighbors, 0, len(hearings))
	for _, id := range caseIDs {
		seq, err := ComputeNeighbors(byCase[id])
		if err != nil {
			return nil, err
		}
		result = append(result, seq...)
	}
	return result, nil
}

// AttachNeighbors enriches targets using neighbors computed over
// caseHearings, the complete hearing sets of the targets' cases. Target order
// is kept. A target missing from caseHearings is a validation error.
func AttachNeighbors(targets []models.Hearing, caseHearings []models.Hearing) ([]HearingWithNeighbors, error) {
	all, err := ComputeNeighborsByCase(caseHearings)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]HearingWithNeighbors, len(all))
	for _, h := range all {
		byID[h.ID] = h
	}

	result := make([]HearingWithNeighbors, 0, len(targets))
	for _, t := range targets {
		n, ok := byID[t.ID]
		if !ok {
			return nil, validationErrorf("hearing %s is not part of its case set", t.ID)
		}
		result = append(result, HearingWithNeighbors{
			Hearing:      t,
			PreviousDate: n.PreviousDate,
			NextDate:     n.NextDate,
		})
	}
	return result, nil
}

// TodayHearings lists the visible hearings on day, ordered by time of day,
// each with its case neighbors. Both the dashboard and the today endpoint
// call this so they always agree.
func TodayHearings(ctx context.Context, db *gorm.DB, scope *AccessScope, day time.Time) ([]HearingWithNeighbors, error) {
	start := models.DateOnly(day)
	end := start.AddDate(0, 0, 1)

	var today []models.Hearing
	err := scope.HearingQuery(db.WithContext(ctx)).
		Preload("Case").
		Preload("CalendarSync").
		Where("hearings.hearing_date >= ? AND hearings.hearing_date < ?", start, end).
		Order("hearings.id ASC").
		Find(&today).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load today's hearings: %w", err)
	}
	if len(today) == 0 {
		return []HearingWithNeighbors{}, nil
	}

	if err := SortByTimeOfDay(today); err != nil {
		return nil, err
	}

	return WithCaseNeighbors(ctx, db, scope, today)
}

// WithCaseNeighbors loads the other hearings of every case in targets and
// attaches previous and next dates, keeping the order of targets
func WithCaseNeighbors(ctx context.Context, db *gorm.DB, scope *AccessScope, targets []models.Hearing) ([]HearingWithNeighbors, error) {
	if len(targets) == 0 {
		return []HearingWithNeighbors{}, nil
	}

	caseIDs := make([]string, 0, len(targets))
	seen := make(map[string]bool)
	for _, h := range targets {
		if !seen[h.CaseID] {
			seen[h.CaseID] = true
			caseIDs = append(caseIDs, h.CaseID)
		}
	}

	var siblings []models.Hearing
	err := scope.HearingQuery(db.WithContext(ctx)).
		Select("hearings.id", "hearings.case_id", "hearings.hearing_date").
		Where("hearings.case_id IN ?", caseIDs).
		Find(&siblings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load case hearings: %w", err)
	}

	return AttachNeighbors(targets, siblings)
}

// CaseHearings lists every hearing of a visible case with neighbors, in date order
func CaseHearings(ctx context.Context, db *gorm.DB, scope *AccessScope, caseID string) ([]HearingWithNeighbors, error) {
	if _, err := scope.FindCase(db.WithContext(ctx), caseID); err != nil {
		return nil, err
	}

	var hearings []models.Hearing
	err := scope.HearingQuery(db.WithContext(ctx)).
		Preload("CalendarSync").
		Where("hearings.case_id = ?", caseID).
		Find(&hearings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load case hearings: %w", err)
	}
	return ComputeNeighbors(hearings)
}
