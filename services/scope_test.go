package services

import (
	"context"
	"testing"

	"legal_diary/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessScope(t *testing.T) {
	firmID := "firm-1"

	t.Run("Unknown role", func(t *testing.T) {
		_, err := NewAccessScope(&models.User{ID: "u1", Role: "CLERK", FirmID: &firmID}, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Nil user", func(t *testing.T) {
		_, err := NewAccessScope(nil, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("No firm yields empty scope", func(t *testing.T) {
		scope, err := NewAccessScope(&models.User{ID: "u1", Role: models.RoleAdmin}, nil)
		require.NoError(t, err)
		assert.True(t, scope.IsEmpty())
		assert.False(t, scope.CanAccessCase("c1", ""))
		assert.Empty(t, scope.FilterCases([]models.Case{{ID: "c1", FirmID: firmID}}))
	})

	t.Run("Admin sees whole firm", func(t *testing.T) {
		scope, err := NewAccessScope(&models.User{ID: "u1", Role: models.RoleAdmin, FirmID: &firmID}, []string{"ignored"})
		require.NoError(t, err)
		assert.True(t, scope.CanAccessCase("any", firmID))
		assert.False(t, scope.CanAccessCase("any", "other-firm"))
	})

	t.Run("Advocate sees assigned cases only", func(t *testing.T) {
		scope, err := NewAccessScope(&models.User{ID: "u2", Role: models.RoleAdvocate, FirmID: &firmID}, []string{"c1", "c1"})
		require.NoError(t, err)
		assert.True(t, scope.CanAccessCase("c1", firmID))
		assert.False(t, scope.CanAccessCase("c2", firmID))
		assert.False(t, scope.CanAccessCase("c1", "other-firm"))
	})
}

func TestFilterIsIdempotent(t *testing.T) {
	firmID := "firm-1"
	cases := []models.Case{
		{ID: "c1", FirmID: firmID},
		{ID: "c2", FirmID: firmID},
		{ID: "c3", FirmID: "firm-2"},
	}
	hearings := []models.Hearing{
		{ID: "h1", CaseID: "c1", Case: &cases[0]},
		{ID: "h2", CaseID: "c2", Case: &cases[1]},
		{ID: "h3", CaseID: "c3", Case: &cases[2]},
		{ID: "h4", CaseID: "c1"},
	}

	users := []*models.User{
		{ID: "admin", Role: models.RoleAdmin, FirmID: &firmID},
		{ID: "adv", Role: models.RoleAdvocate, FirmID: &firmID},
	}
	for _, user := range users {
		scope, err := NewAccessScope(user, []string{"c1", "c3"})
		require.NoError(t, err)

		once := scope.FilterCases(cases)
		assert.Equal(t, once, scope.FilterCases(once))

		onceH := scope.FilterHearings(hearings)
		assert.Equal(t, onceH, scope.FilterHearings(onceH))
	}

	admin, _ := NewAccessScope(users[0], nil)
	assert.Len(t, admin.FilterCases(cases), 2)
	assert.Len(t, admin.FilterHearings(hearings), 2)

	adv, _ := NewAccessScope(users[1], []string{"c1", "c3"})
	filtered := adv.FilterHearings(hearings)
	require.Len(t, filtered, 1)
	assert.Equal(t, "h1", filtered[0].ID)
}

func TestScopedQueries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	firm := createFirm(t, db, "Rao & Associates")
	other := createFirm(t, db, "Other Chambers")
	admin := createUser(t, db, firm, models.RoleAdmin)
	advocate := createUser(t, db, firm, models.RoleAdvocate)
	outsider := createUser(t, db, other, models.RoleAdmin)

	assigned := createCase(t, db, firm, admin, "CS-1")
	unassigned := createCase(t, db, firm, admin, "CS-2")
	foreign := createCase(t, db, other, outsider, "CS-1")
	assignCase(t, db, assigned, advocate)
	// Assignment to another firm's case never leaks into scope
	assignCase(t, db, foreign, advocate)

	createHearing(t, db, assigned, "2026-01-12", nil)
	createHearing(t, db, unassigned, "2026-01-13", nil)
	createHearing(t, db, foreign, "2026-01-14", nil)

	t.Run("Admin", func(t *testing.T) {
		scope, err := LoadAccessScope(ctx, db, admin)
		require.NoError(t, err)

		var cases []models.Case
		require.NoError(t, scope.CaseQuery(db).Order("case_number").Find(&cases).Error)
		assert.Len(t, cases, 2)

		var hearings []models.Hearing
		require.NoError(t, scope.HearingQuery(db).Find(&hearings).Error)
		assert.Len(t, hearings, 2)
	})

	t.Run("Advocate", func(t *testing.T) {
		scope, err := LoadAccessScope(ctx, db, advocate)
		require.NoError(t, err)

		var cases []models.Case
		require.NoError(t, scope.CaseQuery(db).Find(&cases).Error)
		require.Len(t, cases, 1)
		assert.Equal(t, assigned.ID, cases[0].ID)

		var hearings []models.Hearing
		require.NoError(t, scope.HearingQuery(db).Find(&hearings).Error)
		require.Len(t, hearings, 1)
		assert.Equal(t, assigned.ID, hearings[0].CaseID)

		_, err = scope.FindCase(db, unassigned.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Advocate without assignments", func(t *testing.T) {
		idle := createUser(t, db, firm, models.RoleAdvocate)
		scope, err := LoadAccessScope(ctx, db, idle)
		require.NoError(t, err)
		assert.True(t, scope.IsEmpty())

		var count int64
		require.NoError(t, scope.HearingQuery(db).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("User without firm", func(t *testing.T) {
		loner := createUser(t, db, nil, models.RoleAdmin)
		scope, err := LoadAccessScope(ctx, db, loner)
		require.NoError(t, err)

		var cases []models.Case
		require.NoError(t, scope.CaseQuery(db).Find(&cases).Error)
		assert.Empty(t, cases)
	})
}
