package services

import (
	"sort"
	"strings"
	"time"

	"legal_diary/models"
	"legal_diary/services/judicial"
)

// MaxRangeDays bounds explicit date ranges for grids, listings and exports
const MaxRangeDays = 62

// DateRange is an inclusive span of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates and normalises an inclusive day range
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: models.DateOnly(start), End: models.DateOnly(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, validationErrorf("range end %s is before start %s",
			r.End.Format(models.DateLayout), r.Start.Format(models.DateLayout))
	}
	if r.Days() > MaxRangeDays {
		return DateRange{}, validationErrorf("range spans %d days, limit is %d", r.Days(), MaxRangeDays)
	}
	return r, nil
}

// ParseDateRange parses YYYY-MM-DD bounds
func ParseDateRange(from, to string) (DateRange, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return DateRange{}, validationErrorf("invalid from date %q", from)
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return DateRange{}, validationErrorf("invalid to date %q", to)
	}
	return NewDateRange(start, end)
}

// MonthRange covers every day of the given month
func MonthRange(year int, month time.Month) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

// ParseMonth parses YYYY-MM into its month range
func ParseMonth(month string) (DateRange, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return DateRange{}, validationErrorf("invalid month %q", month)
	}
	return MonthRange(t.Year(), t.Month()), nil
}

// Days returns the number of days in the range
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether t falls on a day inside the range
func (r DateRange) Contains(t time.Time) bool {
	d := models.DateOnly(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// EndExclusive is midnight after the last day, for half-open queries
func (r DateRange) EndExclusive() time.Time {
	return r.End.AddDate(0, 0, 1)
}

// SyncSummary counts a day's hearings by external calendar state
type SyncSummary struct {
	Synced   int `json:"synced"`
	Unsynced int `json:"unsynced"`
}

// DayCell is one day of the calendar grid
type DayCell struct {
	Date     string             `json:"date"`
	Status   judicial.DayStatus `json:"status"`
	Hearings []models.Hearing   `json:"hearings"`
	Sync     SyncSummary        `json:"sync"`
}

// AggregateByDate buckets hearings by calendar day (YYYY-MM-DD). Every input
// hearing lands in exactly one bucket, in input order.
func AggregateByDate(hearings []models.Hearing) (map[string][]models.Hearing, error) {
	buckets := make(map[string][]models.Hearing)
	for _, h := range hearings {
		if h.HearingDate.IsZero() {
			return nil, validationErrorf("hearing %s has no date", h.ID)
		}
		key := models.DateOnly(h.HearingDate).Format(models.DateLayout)
		buckets[key] = append(buckets[key], h)
	}
	return buckets, nil
}

// BuildDayGrid produces one cell per day of r, merging the court calendar
// with the day's hearings. Hearings must already be scoped and fall inside r.
func BuildDayGrid(hearings []models.Hearing, r DateRange, cal *judicial.Calendar) ([]DayCell, error) {
	for _, h := range hearings {
		if !h.HearingDate.IsZero() && !r.Contains(h.HearingDate) {
			return nil, validationErrorf("hearing %s on %s is outside the range", h.ID, h.DateKey())
		}
	}

	buckets, err := AggregateByDate(hearings)
	if err != nil {
		return nil, err
	}

	statuses := cal.ResolveRange(r.Start, r.End)
	cells := make([]DayCell, 0, len(statuses))
	for i, d := 0, r.Start; !d.After(r.End); i, d = i+1, d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		dayHearings := buckets[key]
		if dayHearings == nil {
			dayHearings = []models.Hearing{}
		}
		if err := SortByTimeOfDay(dayHearings); err != nil {
			return nil, err
		}

		cell := DayCell{
			Date:     key,
			Status:   statuses[i],
			Hearings: dayHearings,
		}
		for i := range dayHearings {
			if IsSynced(&dayHearings[i]) {
				cell.Sync.Synced++
			} else {
				cell.Sync.Unsynced++
			}
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

var hearingTimeLayouts = []string{"15:04", "3:04 PM", "3:04PM", "15:04:05"}

// ParseHearingTime converts a time-of-day string ("14:30", "2:30 PM") to
// minutes after midnight
func ParseHearingTime(s string) (int, error) {
	value := strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range hearingTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, validationErrorf("invalid hearing time %q", s)
}

// SortByTimeOfDay orders hearings in place by time ascending. Hearings with
// no time go last and keep their relative order.
func SortByTimeOfDay(hearings []models.Hearing) error {
	type keyed struct {
		hearing models.Hearing
		minutes int
		timed   bool
	}

	items := make([]keyed, len(hearings))
	for i, h := range hearings {
		items[i].hearing = h
		if h.HearingTime == nil || strings.TrimSpace(*h.HearingTime) == "" {
			continue
		}
		m, err := ParseHearingTime(*h.HearingTime)
		if err != nil {
			return err
		}
		items[i].minutes = m
		items[i].timed = true
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.timed && b.timed {
			return a.minutes < b.minutes
		}
		return a.timed && !b.timed
	})

	for i := range items {
		hearings[i] = items[i].hearing
	}
	return nil
}
