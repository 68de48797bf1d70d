package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"legal_diary/config"
	"legal_diary/db"
	"legal_diary/handlers"
	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"
	"legal_diary/services/gcal"
	"legal_diary/services/jobs"
	"legal_diary/services/judicial"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database, models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	calendar, err := judicial.Default()
	if err != nil {
		log.Fatalf("Failed to load court calendar: %v", err)
	}
	log.Printf("[CALENDAR] Court calendar loaded for years %v", calendar.Years())

	encryptor, err := services.NewTokenEncryptor(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize token encryption: %v", err)
	}
	credentials := services.NewGormCredentialStore(database, encryptor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := &handlers.Handler{
		DB:          database,
		Config:      cfg,
		Calendar:    calendar,
		Credentials: credentials,
		AI: services.NewAISummaryService(database, services.AISummaryConfig{
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
			BaseURL:  cfg.OpenAIBaseURL,
			Timeout:  cfg.AITimeout,
			Calendar: calendar,
		}),
		Activity: services.NewSafeActivityLogger(services.NewGormActivityLogger(database)),
		Logins:   services.NewLoginMonitor(),
	}

	if cfg.GoogleConfigured() {
		provider := gcal.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.GoogleCalendarID)
		limiter := rate.NewLimiter(rate.Limit(cfg.CalendarSyncRate), 1)
		h.Provider = provider
		h.Sync = services.NewCalendarSyncService(database, provider, credentials, limiter, cfg.Timezone)
	} else {
		log.Println("[SYNC] GOOGLE_CLIENT_ID not set, calendar sync disabled")
	}

	h.Store = services.NewObjectStore(ctx, cfg)
	h.Documents = services.NewDocumentService(database, h.Store)

	scheduler, err := jobs.StartScheduler(database, cfg, calendar, services.NewResendMailer(cfg))
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())

	loginLimiter := middleware.NewLoginRateLimiter()
	defer loginLimiter.Stop()
	handlers.RegisterRoutes(e, h, loginLimiter)

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
