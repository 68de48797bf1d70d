package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"legal_diary/config"
	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"
	"legal_diary/services/gcal"
	"legal_diary/services/judicial"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Handler carries the collaborators every route needs. Clients are built
// once in cmd/server and injected here.
type Handler struct {
	DB       *gorm.DB
	Config   *config.Config
	Calendar *judicial.Calendar

	// Sync and Provider are nil when Google credentials are not configured
	Sync     *services.CalendarSyncService
	Provider gcal.Provider
	// Credentials stores calendar tokens from the connect flow
	Credentials services.CredentialStore

	Documents *services.DocumentService
	Store     services.ObjectStore
	AI        *services.AISummaryService
	Activity  *services.SafeActivityLogger
	Logins    *services.LoginMonitor

	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// location is the firm's timezone, falling back to the configured one
func (h *Handler) location(firm *models.Firm) *time.Location {
	if firm != nil && firm.Timezone != "" {
		if loc, err := time.LoadLocation(firm.Timezone); err == nil {
			return loc
		}
	}
	if h.Config != nil && h.Config.Timezone != "" {
		if loc, err := time.LoadLocation(h.Config.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// today is the current calendar day in the firm's timezone, as a date-only value
func (h *Handler) today(c echo.Context) time.Time {
	local := h.now().In(h.location(middleware.GetCurrentFirm(c)))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func (h *Handler) logActivity(c echo.Context, action models.ActivityAction, resourceType, resourceID, resourceName, description string) {
	if h.Activity == nil {
		return
	}
	entry := services.NewActivityEntry(middleware.GetCurrentUser(c), action, resourceType, resourceID, resourceName, description)
	h.Activity.Log(c.Request().Context(), entry)
}

func currentScope(c echo.Context) (*services.AccessScope, error) {
	scope := middleware.GetAccessScope(c)
	if scope == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return scope, nil
}

// dateRangeParam reads ?from&to, defaulting to the month containing today
func (h *Handler) dateRangeParam(c echo.Context) (services.DateRange, error) {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from == "" && to == "" {
		today := h.today(c)
		return services.MonthRange(today.Year(), today.Month()), nil
	}
	if from == "" || to == "" {
		return services.DateRange{}, echo.NewHTTPError(http.StatusBadRequest, "from and to are both required")
	}
	r, err := services.ParseDateRange(from, to)
	if err != nil {
		return services.DateRange{}, httpError(err)
	}
	return r, nil
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	return page, pageSize
}

// httpError maps service errors onto HTTP statuses. Unknown errors are logged
// and hidden behind a 500.
func httpError(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, services.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrObjectNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrCalendarNotConnected), errors.Is(err, services.ErrAuthExpired):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrProvider):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.Is(err, services.ErrAIUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("[HTTP] Unhandled error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// bindAndValidate decodes the request body into dst and runs its validate tags
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(dst)
}
