package handlers

import (
	"net/http"
	"time"

	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

type calendarResponse struct {
	From string             `json:"from"`
	To   string             `json:"to"`
	Days []services.DayCell `json:"days"`
}

// CalendarDays returns one cell per day for ?month=YYYY-MM or ?from&to
func (h *Handler) CalendarDays(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}

	var r services.DateRange
	if month := c.QueryParam("month"); month != "" {
		r, err = services.ParseMonth(month)
		if err != nil {
			return httpError(err)
		}
	} else if r, err = h.dateRangeParam(c); err != nil {
		return err
	}

	days, err := h.dayGrid(c, scope, r)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, calendarResponse{
		From: r.Start.Format(models.DateLayout),
		To:   r.End.Format(models.DateLayout),
		Days: days,
	})
}

func (h *Handler) dayGrid(c echo.Context, scope *services.AccessScope, r services.DateRange) ([]services.DayCell, error) {
	hearings, err := services.ListHearings(c.Request().Context(), h.DB, scope, r)
	if err != nil {
		return nil, err
	}
	return services.BuildDayGrid(hearings, r, h.Calendar)
}

// DayStatus reports whether the court sits on ?date
func (h *Handler) DayStatus(c echo.Context) error {
	raw := c.QueryParam("date")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	day, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return c.JSON(http.StatusOK, h.Calendar.Resolve(day))
}
