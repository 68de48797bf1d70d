package handlers

import (
	"net/http"

	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

// GenerateSummary asks the model for a fresh case summary
func (h *Handler) GenerateSummary(c echo.Context) error {
	if h.AI == nil {
		return httpError(services.ErrAIUnavailable)
	}
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	summary, err := h.AI.Generate(c.Request().Context(), scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityCreate, services.ResourceAISummary, summary.CaseID, summary.Model, "Generated case summary")
	return c.JSON(http.StatusOK, summary)
}

// GetSummary returns the stored case summary
func (h *Handler) GetSummary(c echo.Context) error {
	if h.AI == nil {
		return httpError(services.ErrAIUnavailable)
	}
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	summary, err := h.AI.Get(c.Request().Context(), scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}
