package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// hearingRequest leaves absent fields unchanged; an empty string clears
// hearing_time, court_room or notes
type hearingRequest struct {
	HearingDate string  `json:"hearing_date" validate:"omitempty,date"`
	HearingTime *string `json:"hearing_time" validate:"omitempty,max=10"`
	HearingType string  `json:"hearing_type"`
	CourtRoom   *string `json:"court_room" validate:"omitempty,max=100"`
	Notes       *string `json:"notes" validate:"omitempty,max=5000"`
	Status      string  `json:"status"`
}

func (r hearingRequest) input() services.HearingInput {
	return services.HearingInput{
		HearingDate: r.HearingDate,
		HearingTime: r.HearingTime,
		HearingType: r.HearingType,
		CourtRoom:   r.CourtRoom,
		Notes:       r.Notes,
		Status:      r.Status,
	}
}

type todayResponse struct {
	Date     string                          `json:"date"`
	Hearings []services.HearingWithNeighbors `json:"hearings"`
}

// CaseHearings lists a case's hearings in date order with neighbors
func (h *Handler) CaseHearings(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	hearings, err := services.CaseHearings(c.Request().Context(), h.DB, scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, hearings)
}

// ScheduleHearing adds a hearing to a case
func (h *Handler) ScheduleHearing(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	var req hearingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hearing, err := services.ScheduleHearing(c.Request().Context(), h.DB, scope, c.Param("id"), req.input())
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityCreate, services.ResourceHearing, hearing.ID, hearing.Case.CaseNumber,
		"Scheduled hearing on "+hearing.DateKey())
	return c.JSON(http.StatusCreated, hearing)
}

// UpdateHearing edits or reschedules a hearing
func (h *Handler) UpdateHearing(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	var req hearingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hearing, err := services.UpdateHearing(c.Request().Context(), h.DB, scope, c.Param("id"), req.input())
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityUpdate, services.ResourceHearing, hearing.ID, caseNumber(hearing),
		"Updated hearing on "+hearing.DateKey())
	return c.JSON(http.StatusOK, hearing)
}

// DeleteHearing removes a hearing with its reminder and sync record
func (h *Handler) DeleteHearing(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	hearing, err := services.DeleteHearing(c.Request().Context(), h.DB, scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityDelete, services.ResourceHearing, hearing.ID, caseNumber(hearing),
		"Deleted hearing on "+hearing.DateKey())
	return c.NoContent(http.StatusNoContent)
}

// ListHearings lists the visible hearings in ?from&to with neighbors
func (h *Handler) ListHearings(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	r, err := h.dateRangeParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	hearings, err := services.ListHearings(ctx, h.DB, scope, r)
	if err != nil {
		return httpError(err)
	}
	withNeighbors, err := services.WithCaseNeighbors(ctx, h.DB, scope, hearings)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, withNeighbors)
}

// TodayHearings lists today's hearings by time of day
func (h *Handler) TodayHearings(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	today, err := h.loadToday(c.Request().Context(), scope, h.today(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, today)
}

func (h *Handler) loadToday(ctx context.Context, scope *services.AccessScope, day time.Time) (*todayResponse, error) {
	hearings, err := services.TodayHearings(ctx, h.DB, scope, day)
	if err != nil {
		return nil, err
	}
	return &todayResponse{Date: day.Format(models.DateLayout), Hearings: hearings}, nil
}

// ExportHearings downloads the diary for ?from&to as a spreadsheet
func (h *Handler) ExportHearings(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	r, err := h.dateRangeParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	hearings, err := services.ListHearings(ctx, h.DB, scope, r)
	if err != nil {
		return httpError(err)
	}
	withNeighbors, err := services.WithCaseNeighbors(ctx, h.DB, scope, hearings)
	if err != nil {
		return httpError(err)
	}
	next := make(map[string]*time.Time, len(withNeighbors))
	for _, hn := range withNeighbors {
		next[hn.ID] = hn.NextDate
	}

	cells, err := services.BuildDayGrid(hearings, r, h.Calendar)
	if err != nil {
		return httpError(err)
	}
	buf, err := services.ExportDiary(cells, next)
	if err != nil {
		return httpError(err)
	}

	filename := fmt.Sprintf("diary_%s_%s.xlsx", r.Start.Format(models.DateLayout), r.End.Format(models.DateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// SyncHearing mirrors one hearing to the user's Google Calendar
func (h *Handler) SyncHearing(c echo.Context) error {
	if h.Sync == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Calendar sync is not configured")
	}
	scope, err := currentScope(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	hearing, err := scope.FindHearing(h.DB.WithContext(ctx), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	user := middleware.GetCurrentUser(c)
	record, err := h.Sync.SyncOne(ctx, user.ID, hearing)
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivitySync, services.ResourceHearing, hearing.ID, caseNumber(hearing), "Synced hearing to calendar")
	return c.JSON(http.StatusOK, record)
}

// SyncAllHearings mirrors every unsynced hearing in ?from&to. Failures are
// reported per hearing and never abort the batch.
func (h *Handler) SyncAllHearings(c echo.Context) error {
	if h.Sync == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Calendar sync is not configured")
	}
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	r, err := h.dateRangeParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	hearings, err := services.ListHearings(ctx, h.DB, scope, r)
	if err != nil {
		return httpError(err)
	}

	user := middleware.GetCurrentUser(c)
	result := h.Sync.SyncAll(ctx, user.ID, services.UnsyncedHearings(hearings))

	h.logActivity(c, models.ActivitySync, services.ResourceCalendar, user.ID, "",
		fmt.Sprintf("Batch sync: %d synced, %d failed", result.Synced, result.Failed))
	return c.JSON(http.StatusOK, result)
}

func caseNumber(h *models.Hearing) string {
	if h.Case == nil {
		return ""
	}
	return h.Case.CaseNumber
}
