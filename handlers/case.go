package handlers

import (
	"net/http"

	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

type caseRequest struct {
	CaseNumber  string `json:"case_number" validate:"max=100"`
	Title       string `json:"title" validate:"required,max=300"`
	CaseType    string `json:"case_type" validate:"max=100"`
	Description string `json:"description"`
	ClientName  string `json:"client_name" validate:"required,max=200"`
	ClientEmail string `json:"client_email" validate:"omitempty,email"`
	ClientPhone string `json:"client_phone" validate:"max=30"`
	Priority    string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	CourtName   string `json:"court_name" validate:"max=200"`
	CourtHall   string `json:"court_hall" validate:"max=100"`
	JudgeName   string `json:"judge_name" validate:"max=200"`
}

type caseStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignmentRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type pagedResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ListCases lists the cases visible to the user
func (h *Handler) ListCases(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)
	filters := services.CaseFilters{
		Status:   c.QueryParam("status"),
		Search:   c.QueryParam("q"),
		Page:     page,
		PageSize: pageSize,
	}

	cases, total, err := services.ListCases(c.Request().Context(), h.DB, scope, filters)
	if err != nil {
		return httpError(err)
	}
	page, pageSize = services.NormalizePage(page, pageSize)
	return c.JSON(http.StatusOK, pagedResponse{Items: cases, Total: total, Page: page, PageSize: pageSize})
}

// CreateCase opens a case in the user's firm
func (h *Handler) CreateCase(c echo.Context) error {
	var req caseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := services.CreateCase(c.Request().Context(), h.DB, middleware.GetCurrentUser(c), services.CaseInput{
		CaseNumber:  req.CaseNumber,
		Title:       req.Title,
		CaseType:    req.CaseType,
		Description: req.Description,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ClientPhone: req.ClientPhone,
		Priority:    req.Priority,
		CourtName:   req.CourtName,
		CourtHall:   req.CourtHall,
		JudgeName:   req.JudgeName,
	})
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityCreate, services.ResourceCase, created.ID, created.CaseNumber, "Opened case "+created.Title)
	return c.JSON(http.StatusCreated, created)
}

// GetCase returns one visible case
func (h *Handler) GetCase(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	found, err := services.GetCase(c.Request().Context(), h.DB, scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, found)
}

// UpdateCaseStatus changes the status of a visible case
func (h *Handler) UpdateCaseStatus(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	var req caseStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := services.UpdateCaseStatus(c.Request().Context(), h.DB, scope, c.Param("id"), req.Status)
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityUpdate, services.ResourceCase, updated.ID, updated.CaseNumber, "Status changed to "+updated.Status)
	return c.JSON(http.StatusOK, updated)
}

// DeleteCase removes a case with its hearings and documents
func (h *Handler) DeleteCase(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	deleted, err := services.DeleteCase(c.Request().Context(), h.DB, h.Store, scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityDelete, services.ResourceCase, deleted.ID, deleted.CaseNumber, "Deleted case "+deleted.Title)
	return c.NoContent(http.StatusNoContent)
}

// AssignCase gives an advocate access to a case
func (h *Handler) AssignCase(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	var req assignmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	assignment, err := services.AssignCase(c.Request().Context(), h.DB, scope, c.Param("id"), req.UserID)
	if err != nil {
		return httpError(err)
	}

	name := ""
	if assignment.User != nil {
		name = assignment.User.Name
	}
	h.logActivity(c, models.ActivityAssign, services.ResourceAssignment, assignment.CaseID, name, "Assigned "+name)
	return c.JSON(http.StatusCreated, assignment)
}

// UnassignCase revokes an advocate's access to a case
func (h *Handler) UnassignCase(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	caseID, userID := c.Param("id"), c.Param("userId")
	if err := services.UnassignCase(c.Request().Context(), h.DB, scope, caseID, userID); err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityUnassign, services.ResourceAssignment, caseID, userID, "Removed assignment")
	return c.NoContent(http.StatusNoContent)
}
