package middleware

import (
	"log"
	"net/http"

	"legal_diary/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const ContextKeyScope = "access_scope"

// LoadScope resolves the authenticated user's access scope once per request.
// Must run after RequireAuth.
func LoadScope(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			scope, err := services.LoadAccessScope(c.Request().Context(), db, user)
			if err != nil {
				log.Printf("[SCOPE] Failed to load scope for user %s: %v", user.ID, err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load permissions")
			}

			c.Set(ContextKeyScope, scope)
			return next(c)
		}
	}
}

// GetAccessScope retrieves the scope set by LoadScope
func GetAccessScope(c echo.Context) *services.AccessScope {
	if scope, ok := c.Get(ContextKeyScope).(*services.AccessScope); ok {
		return scope
	}
	return nil
}
