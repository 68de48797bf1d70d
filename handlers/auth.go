package handlers

import (
	"errors"
	"net/http"
	"time"

	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login exchanges email and password for a session token
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := services.Authenticate(ctx, h.DB, req.Email, req.Password)
	if err != nil {
		if h.Logins != nil && errors.Is(err, services.ErrInvalidCredentials) {
			h.Logins.RecordFailure(c.RealIP(), req.Email)
		}
		return httpError(err)
	}
	if h.Logins != nil {
		h.Logins.RecordSuccess(c.RealIP())
	}

	session, err := services.CreateSession(h.DB.WithContext(ctx), user, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return httpError(err)
	}

	secure := h.Config != nil && h.Config.Environment == "production"
	middleware.SetSessionCookie(c, session, secure)

	c.Set(middleware.ContextKeyUser, user)
	h.logActivity(c, models.ActivityLogin, services.ResourceUser, user.ID, user.Name, "User logged in")

	return c.JSON(http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user})
}

// Logout deletes the current session
func (h *Handler) Logout(c echo.Context) error {
	h.logActivity(c, models.ActivityLogout, services.ResourceUser, currentUserID(c), "", "User logged out")

	if session := middleware.GetCurrentSession(c); session != nil {
		if err := services.DeleteSession(h.DB.WithContext(c.Request().Context()), session.Token); err != nil {
			return httpError(err)
		}
	}
	middleware.ClearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user with their firm
func (h *Handler) Me(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, user)
}

// Health reports that the process is serving
func (h *Handler) Health(c echo.Context) error {
	sqlDB, err := h.DB.DB()
	if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func currentUserID(c echo.Context) string {
	if user := middleware.GetCurrentUser(c); user != nil {
		return user.ID
	}
	return ""
}
