package handlers

import (
	"net/http"

	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// dashboardWeekDays is how many days the dashboard looks ahead, today included
const dashboardWeekDays = 7

type dashboardResponse struct {
	Today             *todayResponse     `json:"today"`
	Week              []services.DayCell `json:"week"`
	ActiveCases       int64              `json:"active_cases"`
	UnsyncedThisWeek  int                `json:"unsynced_this_week"`
	CalendarConnected bool               `json:"calendar_connected"`
}

// Dashboard combines today's hearings, the coming week and case counts. The
// parts are loaded concurrently.
func (h *Handler) Dashboard(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}

	day := h.today(c)
	week, err := services.NewDateRange(day, day.AddDate(0, 0, dashboardWeekDays-1))
	if err != nil {
		return httpError(err)
	}

	var resp dashboardResponse
	g, ctx := errgroup.WithContext(c.Request().Context())

	g.Go(func() error {
		today, err := h.loadToday(ctx, scope, day)
		if err != nil {
			return err
		}
		resp.Today = today
		return nil
	})

	g.Go(func() error {
		hearings, err := services.ListHearings(ctx, h.DB, scope, week)
		if err != nil {
			return err
		}
		cells, err := services.BuildDayGrid(hearings, week, h.Calendar)
		if err != nil {
			return err
		}
		resp.Week = cells
		for _, cell := range cells {
			resp.UnsyncedThisWeek += cell.Sync.Unsynced
		}
		return nil
	})

	g.Go(func() error {
		return scope.CaseQuery(h.DB.WithContext(ctx)).
			Where("cases.status = ?", models.CaseStatusActive).
			Count(&resp.ActiveCases).Error
	})

	if h.Sync != nil {
		userID := middleware.GetCurrentUser(c).ID
		g.Go(func() error {
			credential, err := h.Sync.Status(ctx, userID)
			if err != nil {
				return err
			}
			resp.CalendarConnected = credential != nil
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}
