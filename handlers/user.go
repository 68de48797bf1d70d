package handlers

import (
	"net/http"

	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
	Phone    string `json:"phone" validate:"max=30"`
}

// ListUsers lists the members of the admin's firm
func (h *Handler) ListUsers(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	users, err := services.ListFirmUsers(h.DB.WithContext(c.Request().Context()), *user.FirmID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser adds a member to the admin's firm
func (h *Handler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	admin := middleware.GetCurrentUser(c)
	user, err := services.CreateUser(h.DB.WithContext(c.Request().Context()), *admin.FirmID, services.NewUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
	})
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityCreate, services.ResourceUser, user.ID, user.Name, "Created "+user.Role+" "+user.Email)
	return c.JSON(http.StatusCreated, user)
}

// DeactivateUser disables a member and ends their sessions
func (h *Handler) DeactivateUser(c echo.Context) error {
	admin := middleware.GetCurrentUser(c)
	user, err := services.DeactivateUser(h.DB.WithContext(c.Request().Context()), admin, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityUpdate, services.ResourceUser, user.ID, user.Name, "Deactivated user")
	return c.JSON(http.StatusOK, user)
}
