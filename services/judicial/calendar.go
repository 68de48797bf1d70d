// Package judicial holds the court working-day calendar: static holiday,
// vacation and sitting-day tables per year plus the weekly closure rules.
package judicial

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Default labels for rule-based closures
const (
	LabelSunday         = "Sunday"
	LabelSecondSaturday = "2nd Saturday"
	LabelSittingDay     = "Sitting Day"
)

const dateLayout = "2006-01-02"

//go:embed calendar_data.yaml
var calendarData []byte

// DayStatus is the derived working/non-working classification of one date
type DayStatus struct {
	Date                string `json:"date"`
	IsWorkingDay        bool   `json:"is_working_day"`
	Label               string `json:"label,omitempty"`
	InVacation          bool   `json:"is_vacation"`
	IsGeneralHoliday    bool   `json:"is_general_holiday"`
	IsRestrictedHoliday bool   `json:"is_restricted_holiday"`
	IsSunday            bool   `json:"is_sunday"`
	IsSecondSaturday    bool   `json:"is_second_saturday"`
	IsSittingDay        bool   `json:"is_sitting_day"`
	// Covered is false when the year has no table; only weekly rules applied
	Covered bool `json:"covered"`
}

type namedDate struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

type vacationEntry struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type yearTable struct {
	GeneralHolidays    []namedDate     `yaml:"general_holidays"`
	RestrictedHolidays []namedDate     `yaml:"restricted_holidays"`
	Vacations          []vacationEntry `yaml:"vacations"`
	SittingDays        []namedDate     `yaml:"sitting_days"`
}

type calendarFile struct {
	Years map[int]yearTable `yaml:"years"`
}

type vacation struct {
	name       string
	start, end time.Time
}

type yearIndex struct {
	general    map[string]string
	restricted map[string]string
	sitting    map[string]string
	vacations  []vacation
}

// Calendar is an immutable, parsed set of year tables. Safe for concurrent use.
type Calendar struct {
	years map[int]*yearIndex
}

// NewCalendar parses YAML calendar tables
func NewCalendar(data []byte) (*Calendar, error) {
	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse calendar data: %w", err)
	}

	cal := &Calendar{years: make(map[int]*yearIndex, len(file.Years))}
	for year, table := range file.Years {
		idx := &yearIndex{
			general:    make(map[string]string),
			restricted: make(map[string]string),
			sitting:    make(map[string]string),
		}
		if err := indexDates(year, table.GeneralHolidays, idx.general); err != nil {
			return nil, fmt.Errorf("general holidays: %w", err)
		}
		if err := indexDates(year, table.RestrictedHolidays, idx.restricted); err != nil {
			return nil, fmt.Errorf("restricted holidays: %w", err)
		}
		if err := indexDates(year, table.SittingDays, idx.sitting); err != nil {
			return nil, fmt.Errorf("sitting days: %w", err)
		}
		for _, v := range table.Vacations {
			start, err := time.Parse(dateLayout, v.Start)
			if err != nil {
				return nil, fmt.Errorf("vacation %q: invalid start %q", v.Name, v.Start)
			}
			end, err := time.Parse(dateLayout, v.End)
			if err != nil {
				return nil, fmt.Errorf("vacation %q: invalid end %q", v.Name, v.End)
			}
			if end.Before(start) {
				return nil, fmt.Errorf("vacation %q ends before it starts", v.Name)
			}
			idx.vacations = append(idx.vacations, vacation{name: v.Name, start: start, end: end})
		}
		sort.Slice(idx.vacations, func(i, j int) bool {
			return idx.vacations[i].start.Before(idx.vacations[j].start)
		})
		cal.years[year] = idx
	}

	return cal, nil
}

func indexDates(year int, entries []namedDate, into map[string]string) error {
	for _, e := range entries {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q", e.Date)
		}
		if d.Year() != year {
			return fmt.Errorf("date %s listed under year %d", e.Date, year)
		}
		into[e.Date] = e.Name
	}
	return nil
}

var loadDefault = sync.OnceValues(func() (*Calendar, error) {
	return NewCalendar(calendarData)
})

// Default returns the calendar built from the embedded tables
func Default() (*Calendar, error) {
	return loadDefault()
}

// Covers reports whether the calendar has a table for year
func (c *Calendar) Covers(year int) bool {
	_, ok := c.years[year]
	return ok
}

// Years lists the covered years in ascending order
func (c *Calendar) Years() []int {
	years := make([]int, 0, len(c.years))
	for y := range c.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Resolve classifies a calendar date. Only the date part of the argument is used.
//
// Precedence: vacation, then general holiday, then Sunday, then second
// Saturday each close the day and set the label only if none is set yet. A
// sitting day reopens the day and always takes the label. A restricted
// holiday only labels an otherwise plain working day.
func (c *Calendar) Resolve(date time.Time) DayStatus {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	key := day.Format(dateLayout)

	status := DayStatus{
		Date:             key,
		IsWorkingDay:     true,
		IsSunday:         day.Weekday() == time.Sunday,
		IsSecondSaturday: day.Weekday() == time.Saturday && day.Day() >= 8 && day.Day() <= 14,
	}

	var vacationName, holidayName, restrictedName string
	if idx, ok := c.years[day.Year()]; ok {
		status.Covered = true
		for _, v := range idx.vacations {
			if !day.Before(v.start) && !day.After(v.end) {
				status.InVacation = true
				vacationName = v.name
				break
			}
		}
		holidayName, status.IsGeneralHoliday = idx.general[key]
		restrictedName, status.IsRestrictedHoliday = idx.restricted[key]
		_, status.IsSittingDay = idx.sitting[key]
	}

	setLabel := func(label string) {
		if status.Label == "" {
			status.Label = label
		}
	}

	if status.InVacation {
		status.IsWorkingDay = false
		setLabel(vacationName)
	}
	if status.IsGeneralHoliday {
		status.IsWorkingDay = false
		setLabel(holidayName)
	}
	if status.IsSunday {
		status.IsWorkingDay = false
		setLabel(LabelSunday)
	}
	if status.IsSecondSaturday && !status.IsSittingDay {
		status.IsWorkingDay = false
		setLabel(LabelSecondSaturday)
	}
	if status.IsSittingDay {
		status.IsWorkingDay = true
		status.Label = LabelSittingDay
	}
	if status.IsRestrictedHoliday && status.IsWorkingDay && status.Label == "" {
		status.Label = restrictedName
	}

	return status
}

// ResolveRange classifies every date from start to end inclusive
func (c *Calendar) ResolveRange(start, end time.Time) []DayStatus {
	var days []DayStatus
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, c.Resolve(d))
	}
	return days
}
