package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"legal_diary/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hearingOn(id, caseID, day string) models.Hearing {
	return models.Hearing{ID: id, CaseID: caseID, HearingDate: date(day)}
}

func TestComputeNeighbors_Scenario(t *testing.T) {
	hearings := []models.Hearing{
		hearingOn("h3", "X", "2026-03-01"),
		hearingOn("h1", "X", "2026-01-10"),
		hearingOn("h2", "X", "2026-02-05"),
	}

	result, err := ComputeNeighbors(hearings)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "h1", result[0].ID)
	assert.Nil(t, result[0].PreviousDate)
	assert.Equal(t, date("2026-02-05"), *result[0].NextDate)

	middle := result[1]
	assert.Equal(t, "h2", middle.ID)
	assert.Equal(t, date("2026-01-10"), *middle.PreviousDate)
	assert.Equal(t, date("2026-03-01"), *middle.NextDate)

	assert.Equal(t, date("2026-02-05"), *result[2].PreviousDate)
	assert.Nil(t, result[2].NextDate)

	// Input is left untouched
	assert.Equal(t, "h3", hearings[0].ID)
}

func TestComputeNeighbors_SingleHearing(t *testing.T) {
	result, err := ComputeNeighbors([]models.Hearing{hearingOn("only", "X", "2026-04-01")})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Nil(t, result[0].PreviousDate)
	assert.Nil(t, result[0].NextDate)
}

func TestComputeNeighbors_Empty(t *testing.T) {
	result, err := ComputeNeighbors(nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestComputeNeighbors_TiesBrokenByID(t *testing.T) {
	result, err := ComputeNeighbors([]models.Hearing{
		hearingOn("b", "X", "2026-01-10"),
		hearingOn("a", "X", "2026-01-10"),
		hearingOn("c", "X", "2026-01-09"),
	})
	require.NoError(t, err)

	ids := []string{result[0].ID, result[1].ID, result[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, date("2026-01-10"), *result[1].NextDate)
}

func TestComputeNeighbors_InvalidInput(t *testing.T) {
	_, err := ComputeNeighbors([]models.Hearing{
		hearingOn("h1", "X", "2026-01-10"),
		hearingOn("h2", "Y", "2026-01-11"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ComputeNeighbors([]models.Hearing{{ID: "h1", CaseID: "X"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComputeNeighborsByCase_Ordering(t *testing.T) {
	// Property: within each case, neighbors are the adjacent dates in sorted order
	rng := rand.New(rand.NewSource(42))
	var hearings []models.Hearing
	base := date("2026-01-01")
	for i := 0; i < 60; i++ {
		caseID := []string{"case-b", "case-a", "case-c"}[rng.Intn(3)]
		hearings = append(hearings, models.Hearing{
			ID:          fmt.Sprintf("h%02d", i),
			CaseID:      caseID,
			HearingDate: base.AddDate(0, 0, rng.Intn(120)),
		})
	}

	result, err := ComputeNeighborsByCase(hearings)
	require.NoError(t, err)
	require.Len(t, result, len(hearings))

	for i, h := range result {
		if i > 0 {
			assert.LessOrEqual(t, result[i-1].CaseID, h.CaseID)
		}
		sameBefore := i > 0 && result[i-1].CaseID == h.CaseID
		sameAfter := i < len(result)-1 && result[i+1].CaseID == h.CaseID

		if sameBefore {
			require.NotNil(t, h.PreviousDate)
			assert.Equal(t, result[i-1].HearingDate, *h.PreviousDate)
			assert.False(t, h.HearingDate.Before(*h.PreviousDate))
		} else {
			assert.Nil(t, h.PreviousDate)
		}
		if sameAfter {
			require.NotNil(t, h.NextDate)
			assert.Equal(t, result[i+1].HearingDate, *h.NextDate)
		} else {
			assert.Nil(t, h.NextDate)
		}
	}
}

func TestAttachNeighbors(t *testing.T) {
	all := []models.Hearing{
		hearingOn("x1", "X", "2026-01-10"),
		hearingOn("x2", "X", "2026-02-05"),
		hearingOn("x3", "X", "2026-03-01"),
		hearingOn("y1", "Y", "2026-02-05"),
	}
	targets := []models.Hearing{all[3], all[1]}

	result, err := AttachNeighbors(targets, all)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "y1", result[0].ID)
	assert.Nil(t, result[0].PreviousDate)
	assert.Nil(t, result[0].NextDate)

	assert.Equal(t, "x2", result[1].ID)
	assert.Equal(t, date("2026-01-10"), *result[1].PreviousDate)
	assert.Equal(t, date("2026-03-01"), *result[1].NextDate)

	_, err = AttachNeighbors([]models.Hearing{hearingOn("z", "Z", "2026-01-01")}, all)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTodayHearings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	firm := createFirm(t, db, "Rao & Associates")
	admin := createUser(t, db, firm, models.RoleAdmin)
	advocate := createUser(t, db, firm, models.RoleAdvocate)

	caseX := createCase(t, db, firm, admin, "CS-X")
	caseY := createCase(t, db, firm, admin, "CS-Y")
	assignCase(t, db, caseX, advocate)

	createHearing(t, db, caseX, "2026-01-10", nil)
	todayX := createHearing(t, db, caseX, "2026-02-05", stringPtr("2:30 PM"))
	createHearing(t, db, caseX, "2026-03-01", nil)
	todayY := createHearing(t, db, caseY, "2026-02-05", stringPtr("10:00"))

	adminScope, err := LoadAccessScope(ctx, db, admin)
	require.NoError(t, err)

	result, err := TodayHearings(ctx, db, adminScope, time.Date(2026, 2, 5, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, result, 2)

	// Ordered by time of day
	assert.Equal(t, todayY.ID, result[0].ID)
	assert.Nil(t, result[0].PreviousDate)
	assert.Nil(t, result[0].NextDate)

	assert.Equal(t, todayX.ID, result[1].ID)
	require.NotNil(t, result[1].Case)
	assert.Equal(t, "CS-X", result[1].Case.CaseNumber)
	assert.Equal(t, date("2026-01-10"), result[1].PreviousDate.UTC())
	assert.Equal(t, date("2026-03-01"), result[1].NextDate.UTC())

	advScope, err := LoadAccessScope(ctx, db, advocate)
	require.NoError(t, err)
	result, err = TodayHearings(ctx, db, advScope, date("2026-02-05"))
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, todayX.ID, result[0].ID)

	result, err = TodayHearings(ctx, db, advScope, date("2026-02-06"))
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestCaseHearings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	firm := createFirm(t, db, "Rao & Associates")
	admin := createUser(t, db, firm, models.RoleAdmin)
	c := createCase(t, db, firm, admin, "CS-1")
	createHearing(t, db, c, "2026-03-01", nil)
	createHearing(t, db, c, "2026-01-10", nil)

	scope, err := LoadAccessScope(ctx, db, admin)
	require.NoError(t, err)

	result, err := CaseHearings(ctx, db, scope, c.ID)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, date("2026-03-01"), result[0].NextDate.UTC())

	_, err = CaseHearings(ctx, db, scope, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
