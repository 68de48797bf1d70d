package handlers

import (
	"legal_diary/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the JSON API on e
func RegisterRoutes(e *echo.Echo, h *Handler, loginLimiter *middleware.RateLimiter) {
	e.Validator = NewRequestValidator()

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if loginLimiter != nil {
		e.POST("/login", h.Login, loginLimiter.Middleware())
	} else {
		e.POST("/login", h.Login)
	}
	e.POST("/logout", h.Logout, middleware.RequireAuth(h.DB))

	// OAuth redirect target; the signed state identifies the user
	e.GET("/api/google/callback", h.GoogleCallback)

	api := e.Group("/api", middleware.RequireAuth(h.DB))
	api.GET("/me", h.Me)

	firm := api.Group("", middleware.RequireFirm(), middleware.LoadScope(h.DB))
	admin := middleware.RequireAdmin()

	// Team
	firm.GET("/users", h.ListUsers, admin)
	firm.POST("/users", h.CreateUser, admin)
	firm.PUT("/users/:id/deactivate", h.DeactivateUser, admin)

	// Cases
	firm.GET("/cases", h.ListCases)
	firm.POST("/cases", h.CreateCase)
	firm.GET("/cases/:id", h.GetCase)
	firm.PUT("/cases/:id/status", h.UpdateCaseStatus)
	firm.DELETE("/cases/:id", h.DeleteCase, admin)
	firm.POST("/cases/:id/assignments", h.AssignCase, admin)
	firm.DELETE("/cases/:id/assignments/:userId", h.UnassignCase, admin)
	firm.GET("/cases/:id/hearings", h.CaseHearings)
	firm.POST("/cases/:id/hearings", h.ScheduleHearing)

	// Documents
	firm.POST("/cases/:id/documents", h.UploadDocument)
	firm.GET("/cases/:id/documents", h.ListDocuments)
	firm.GET("/documents/:id/download", h.DownloadDocument)
	firm.DELETE("/documents/:id", h.DeleteDocument)

	// AI summary
	firm.POST("/cases/:id/ai-summary", h.GenerateSummary)
	firm.GET("/cases/:id/ai-summary", h.GetSummary)

	// Hearings
	firm.GET("/hearings", h.ListHearings)
	firm.GET("/hearings/today", h.TodayHearings)
	firm.GET("/hearings/export", h.ExportHearings)
	firm.POST("/hearings/sync-all", h.SyncAllHearings)
	firm.PUT("/hearings/:id", h.UpdateHearing)
	firm.DELETE("/hearings/:id", h.DeleteHearing)
	firm.POST("/hearings/:id/sync", h.SyncHearing)

	// Calendar
	firm.GET("/calendar/days", h.CalendarDays)
	firm.GET("/calendar/day-status", h.DayStatus)
	firm.GET("/dashboard", h.Dashboard)

	// Google Calendar connection
	firm.GET("/google/connect", h.GoogleConnect)
	firm.GET("/google/status", h.GoogleStatus)
	firm.DELETE("/google/connection", h.GoogleDisconnect)

	firm.GET("/activity", h.ListActivity, admin)
}
