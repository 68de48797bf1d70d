package services

import (
	"bytes"
	"fmt"
	"time"

	"legal_diary/models"

	"github.com/xuri/excelize/v2"
)

const diarySheet = "Diary"

var diaryHeaders = []string{
	"Date", "Day", "Court Calendar", "Time", "Case Number", "Title",
	"Client", "Court", "Hearing Type", "Status", "Next Date", "Synced",
}

// ExportDiary renders a day grid as an XLSX cause list. Every hearing gets a
// row; closed days without hearings get a row carrying only their label.
// next maps hearing ids to their next date within the case.
func ExportDiary(cells []DayCell, next map[string]*time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", diarySheet); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDE4EE"}, Pattern: 1},
	})
	closedStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#9C2B2B"},
	})

	for i, header := range diaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(diarySheet, cell, header)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(diaryHeaders))
	f.SetCellStyle(diarySheet, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(diarySheet, "A", "C", 16)
	f.SetColWidth(diarySheet, "D", lastCol, 20)
	f.SetColWidth(diarySheet, "F", "F", 36)

	row := 2
	writeRow := func(values []interface{}, closed bool) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(diarySheet, cell, v)
		}
		if closed {
			f.SetCellStyle(diarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), closedStyle)
		}
		row++
	}

	for _, cell := range cells {
		day, err := time.Parse(models.DateLayout, cell.Date)
		if err != nil {
			return nil, validationErrorf("invalid day %q", cell.Date)
		}
		closed := !cell.Status.IsWorkingDay
		label := dayLabel(cell)

		if len(cell.Hearings) == 0 {
			if closed {
				writeRow([]interface{}{cell.Date, day.Weekday().String(), label}, true)
			}
			continue
		}

		for _, h := range cell.Hearings {
			values := []interface{}{cell.Date, day.Weekday().String(), label, "", "", "", "", "", h.HearingType, h.Status, "", "No"}
			if h.HearingTime != nil {
				values[3] = *h.HearingTime
			}
			if h.Case != nil {
				values[4] = h.Case.CaseNumber
				values[5] = h.Case.Title
				values[6] = h.Case.ClientName
				values[7] = h.Case.CourtName
			}
			if n := next[h.ID]; n != nil {
				values[10] = n.Format(models.DateLayout)
			}
			if IsSynced(&h) {
				values[11] = "Yes"
			}
			writeRow(values, closed)
		}
	}

	f.SetPanes(diarySheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write diary: %w", err)
	}
	return buf, nil
}

func dayLabel(cell DayCell) string {
	switch {
	case cell.Status.Label != "":
		return cell.Status.Label
	case cell.Status.IsWorkingDay:
		return "Working Day"
	default:
		return "Closed"
	}
}
