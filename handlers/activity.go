package handlers

import (
	"net/http"

	"legal_diary/middleware"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

// ListActivity pages through the firm's activity log, newest first
func (h *Handler) ListActivity(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	page, pageSize := services.NormalizePage(pageParams(c))

	logs, total, err := services.ListActivity(h.DB.WithContext(c.Request().Context()), *user.FirmID, page, pageSize)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagedResponse{Items: logs, Total: total, Page: page, PageSize: pageSize})
}
