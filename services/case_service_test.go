package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"legal_diary/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCaseNumber(t *testing.T) {
	db := setupTestDB(t)
	firm := createFirm(t, db, "Rao Associates")
	admin := createUser(t, db, firm, models.RoleAdmin)

	year := time.Now().Year()
	first, err := GenerateCaseNumber(db, firm.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("RAO-ASSOCIATES-%d-00001", year), first)

	createCase(t, db, firm, admin, fmt.Sprintf("RAO-ASSOCIATES-%d-00041", year))
	next, err := GenerateCaseNumber(db, firm.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("RAO-ASSOCIATES-%d-00042", year), next)
}

func TestCreateCase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	firm := createFirm(t, db, "Rao Associates")
	admin := createUser(t, db, firm, models.RoleAdmin)
	advocate := createUser(t, db, firm, models.RoleAdvocate)

	c, err := CreateCase(ctx, db, admin, CaseInput{CaseNumber: "OS 12/2026", Title: "Sharma v. Gupta", ClientName: "R. Sharma", ClientEmail: "r@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusActive, c.Status)
	assert.Equal(t, models.CasePriorityMedium, c.Priority)
	require.NotNil(t, c.ClientEmail)
	assert.Nil(t, c.ClientPhone)

	_, err = CreateCase(ctx, db, admin, CaseInput{CaseNumber: "OS 12/2026", Title: "Other", ClientName: "X"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = CreateCase(ctx, db, admin, CaseInput{Title: "", ClientName: "X"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = CreateCase(ctx, db, admin, CaseInput{Title: "T", ClientName: "X", Priority: "SOMEDAY"})
	assert.ErrorIs(t, err, ErrValidation)

	generated, err := CreateCase(ctx, db, admin, CaseInput{Title: "Generated", ClientName: "Y"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(generated.CaseNumber, "RAO-ASSOCIATES-"))

	t.Run("Advocate is assigned to own case", func(t *testing.T) {
		own, err := CreateCase(ctx, db, advocate, CaseInput{Title: "Own matter", ClientName: "Z"})
		require.NoError(t, err)

		scope, err := LoadAccessScope(ctx, db, advocate)
		require.NoError(t, err)
		assert.True(t, scope.CanAccessCase(own.ID, firm.ID))
		assert.False(t, scope.CanAccessCase(c.ID, firm.ID))
	})

	t.Run("User without firm", func(t *testing.T) {
		loner := createUser(t, db, nil, models.RoleAdmin)
		_, err := CreateCase(ctx, db, loner, CaseInput{Title: "T", ClientName: "X"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestListCases(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	firm := createFirm(t, db, "Rao Associates")
	admin := createUser(t, db, firm, models.RoleAdmin)
	advocate := createUser(t, db, firm, models.RoleAdvocate)

	for i := 1; i <= 5; i++ {
		createCase(t, db, firm, admin, fmt.Sprintf("CS-%d", i))
	}
	closed := createCase(t, db, firm, admin, "WP-9")
	require.NoError(t, db.Model(closed).Update("status", models.CaseStatusConcluded).Error)
	assignCase(t, db, closed, advocate)

	adminScope, err := LoadAccessScope(ctx, db, admin)
	require.NoError(t, err)

	cases, total, err := ListCases(ctx, db, adminScope, CaseFilters{Page: 1, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, cases, 4)

	cases, total, err = ListCases(ctx, db, adminScope, CaseFilters{Status: models.CaseStatusConcluded})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, closed.ID, cases[0].ID)

	_, total, err = ListCases(ctx, db, adminScope, CaseFilters{Search: "cs-"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	_, _, err = ListCases(ctx, db, adminScope, CaseFilters{Status: "OPEN"})
	assert.ErrorIs(t, err, ErrValidation)

	advScope, err := LoadAccessScope(ctx, db, advocate)
	require.NoError(t, err)
	cases, total, err = ListCases(ctx, db, advScope, CaseFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, closed.ID, cases[0].ID)
}

func TestGetAndUpdateCase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	firm := createFirm(t, db, "Rao Associates")
	admin := createUser(t, db, firm, models.RoleAdmin)
	advocate := createUser(t, db, firm, models.RoleAdvocate)
	c := createCase(t, db, firm, admin, "CS-1")
	assignCase(t, db, c, advocate)

	scope, err := LoadAccessScope(ctx, db, admin)
	require.NoError(t, err)

	got, err := GetCase(ctx, db, scope, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Assignments, 1)
	require.NotNil(t, got.Assignments[0].User)
	assert.Equal(t, advocate.ID, got.Assignments[0].User.ID)

	updated, err := UpdateCaseStatus(ctx, db, scope, c.ID, models.CaseStatusAppeal)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusAppeal, updated.Status)

	_, err = UpdateCaseStatus(ctx, db, scope, c.ID, "LOST")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = GetCase(ctx, db, scope, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignCase(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	firm := createFirm(t, db, "Rao Associates")
	other := createFirm(t, db, "Other Chambers")
	admin := createUser(t, db, firm, models.RoleAdmin)
	advocate := createUser(t, db, firm, models.RoleAdvocate)
	outsider := createUser(t, db, other, models.RoleAdvocate)
	c := createCase(t, db, firm, admin, "CS-1")

	adminScope, err := LoadAccessScope(ctx, db, admin)
	require.NoError(t, err)

	assignment, err := AssignCase(ctx, db, adminScope, c.ID, advocate.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, *assignment.AssignedByID)

	_, err = AssignCase(ctx, db, adminScope, c.ID, advocate.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = AssignCase(ctx, db, adminScope, c.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrValidation)

	advScope, err := LoadAccessScope(ctx, db, advocate)
	require.NoError(t, err)
	_, err = AssignCase(ctx, db, advScope, c.ID, advocate.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, UnassignCase(ctx, db, advScope, c.ID, advocate.ID), ErrForbidden)

	require.NoError(t, UnassignCase(ctx, db, adminScope, c.ID, advocate.ID))
	assert.ErrorIs(t, UnassignCase(ctx, db, adminScope, c.ID, advocate.ID), ErrNotFound)

	advScope, err = LoadAccessScope(ctx, db, advocate)
	require.NoError(t, err)
	assert.True(t, advScope.IsEmpty())
}

type recordingStore struct {
	*LocalStore
	deleted []string
}

func (r *recordingStore) Delete(ctx context.Context, key string) error {
	r.deleted = append(r.deleted, key)
	return r.LocalStore.Delete(ctx, key)
}

func TestDeleteCase_Cascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	firm := createFirm(t, db, "Rao Associates")
	admin := createUser(t, db, firm, models.RoleAdmin)
	advocate := createUser(t, db, firm, models.RoleAdvocate)

	doomed := createCase(t, db, firm, admin, "CS-1")
	kept := createCase(t, db, firm, admin, "CS-2")
	assignCase(t, db, doomed, advocate)

	adminScope, err := LoadAccessScope(ctx, db, admin)
	require.NoError(t, err)

	h, err := ScheduleHearing(ctx, db, adminScope, doomed.ID, HearingInput{HearingDate: "2026-02-10"})
	require.NoError(t, err)
	keptHearing, err := ScheduleHearing(ctx, db, adminScope, kept.ID, HearingInput{HearingDate: "2026-02-10"})
	require.NoError(t, err)
	require.NoError(t, UpsertCalendarSync(db, &models.CalendarSync{HearingID: h.ID, UserID: admin.ID, ProviderEventID: "evt", Status: models.SyncStatusSynced}))
	require.NoError(t, db.Create(&models.AISummary{CaseID: doomed.ID, Summary: "s"}).Error)

	store := &recordingStore{LocalStore: NewLocalStore(t.TempDir())}
	docs := NewDocumentService(db, store)
	doc, err := docs.Upload(ctx, adminScope, doomed.ID, DocumentUpload{FileName: "order.pdf", Size: 4, Body: strings.NewReader("%PDF")})
	require.NoError(t, err)

	advScope, err := LoadAccessScope(ctx, db, advocate)
	require.NoError(t, err)
	_, err = DeleteCase(ctx, db, store, advScope, doomed.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = DeleteCase(ctx, db, store, adminScope, doomed.ID)
	require.NoError(t, err)

	counts := map[string]interface{}{
		"cases":            &models.Case{},
		"hearings":         &models.Hearing{},
		"reminders":        &models.Reminder{},
		"calendar_syncs":   &models.CalendarSync{},
		"case_documents":   &models.Document{},
		"case_assignments": &models.CaseAssignment{},
		"ai_summaries":     &models.AISummary{},
	}
	for name, model := range counts {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		switch name {
		case "cases", "hearings", "reminders":
			assert.Equal(t, int64(1), n, name)
		default:
			assert.Zero(t, n, name)
		}
	}
	assert.Equal(t, []string{doc.StorageKey}, store.deleted)

	_, err = adminScope.FindHearing(db, keptHearing.ID)
	assert.NoError(t, err)
}
