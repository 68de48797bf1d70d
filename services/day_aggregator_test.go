package services

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"legal_diary/models"
	"legal_diary/services/judicial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultCalendar(t *testing.T) *judicial.Calendar {
	cal, err := judicial.Default()
	require.NoError(t, err)
	return cal
}

func TestAggregateByDate_Completeness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var hearings []models.Hearing
	for i := 0; i < 100; i++ {
		day := date("2026-01-01").AddDate(0, 0, rng.Intn(40))
		// Time of day on the stored value must not move the bucket
		day = day.Add(time.Duration(rng.Intn(23)) * time.Hour)
		hearings = append(hearings, models.Hearing{ID: fmt.Sprintf("h%03d", i), CaseID: "c", HearingDate: day})
	}

	buckets, err := AggregateByDate(hearings)
	require.NoError(t, err)

	seen := make(map[string]int)
	for key, bucket := range buckets {
		for _, h := range bucket {
			seen[h.ID]++
			assert.Equal(t, h.HearingDate.Format(models.DateLayout), key)
		}
	}
	assert.Len(t, seen, len(hearings))
	for id, n := range seen {
		assert.Equal(t, 1, n, "hearing %s bucketed more than once", id)
	}
}

func TestAggregateByDate_RejectsMissingDate(t *testing.T) {
	_, err := AggregateByDate([]models.Hearing{{ID: "h1"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildDayGrid(t *testing.T) {
	synced := &models.CalendarSync{Status: models.SyncStatusSynced}
	failed := &models.CalendarSync{Status: models.SyncStatusFailed}

	hearings := []models.Hearing{
		{ID: "untimed-1", CaseID: "c1", HearingDate: date("2026-01-12")},
		{ID: "afternoon", CaseID: "c2", HearingDate: date("2026-01-12"), HearingTime: stringPtr("2:30 PM"), CalendarSync: synced},
		{ID: "untimed-2", CaseID: "c3", HearingDate: date("2026-01-12"), CalendarSync: failed},
		{ID: "morning", CaseID: "c4", HearingDate: date("2026-01-12"), HearingTime: stringPtr("10:15")},
		{ID: "holiday", CaseID: "c1", HearingDate: date("2026-01-26")},
	}

	cells, err := BuildDayGrid(hearings, MonthRange(2026, time.January), defaultCalendar(t))
	require.NoError(t, err)
	require.Len(t, cells, 31)

	newYear := cells[0]
	assert.Equal(t, "2026-01-01", newYear.Date)
	assert.False(t, newYear.Status.IsWorkingDay)
	assert.Equal(t, "New Year's Day", newYear.Status.Label)
	assert.NotNil(t, newYear.Hearings)
	assert.Empty(t, newYear.Hearings)

	busy := cells[11]
	assert.Equal(t, "2026-01-12", busy.Date)
	require.Len(t, busy.Hearings, 4)
	order := []string{busy.Hearings[0].ID, busy.Hearings[1].ID, busy.Hearings[2].ID, busy.Hearings[3].ID}
	assert.Equal(t, []string{"morning", "afternoon", "untimed-1", "untimed-2"}, order)
	assert.Equal(t, SyncSummary{Synced: 1, Unsynced: 3}, busy.Sync)

	republic := cells[25]
	assert.Equal(t, "Republic Day", republic.Status.Label)
	assert.Len(t, republic.Hearings, 1)
}

func TestBuildDayGrid_InvalidInput(t *testing.T) {
	cal := defaultCalendar(t)
	r := MonthRange(2026, time.February)

	_, err := BuildDayGrid([]models.Hearing{{ID: "h1", HearingDate: date("2026-03-01")}}, r, cal)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildDayGrid([]models.Hearing{{ID: "h1"}}, r, cal)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildDayGrid([]models.Hearing{{ID: "h1", HearingDate: date("2026-02-03"), HearingTime: stringPtr("noon")}}, r, cal)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDateRanges(t *testing.T) {
	feb := MonthRange(2026, time.February)
	assert.Equal(t, 28, feb.Days())
	assert.Equal(t, date("2026-02-28"), feb.End)
	assert.True(t, feb.Contains(date("2026-02-28").Add(23*time.Hour)))
	assert.False(t, feb.Contains(date("2026-03-01")))
	assert.Equal(t, date("2026-03-01"), feb.EndExclusive())

	r, err := ParseDateRange("2026-01-01", "2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, MaxRangeDays, r.Days())

	_, err = ParseDateRange("2026-01-01", "2026-03-04")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseDateRange("2026-01-10", "2026-01-01")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseDateRange("yesterday", "2026-01-01")
	assert.ErrorIs(t, err, ErrValidation)

	m, err := ParseMonth("2026-12")
	require.NoError(t, err)
	assert.Equal(t, 31, m.Days())

	_, err = ParseMonth("2026-13")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseHearingTime(t *testing.T) {
	tests := []struct {
		input   string
		minutes int
		wantErr bool
	}{
		{"10:30", 630, false},
		{"14:05", 845, false},
		{"2:30 PM", 870, false},
		{"2:30 pm", 870, false},
		{"12:00 AM", 0, false},
		{" 9:00 AM ", 540, false},
		{"11:45AM", 705, false},
		{"25:00", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseHearingTime(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.minutes, m)
		})
	}
}
