package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"legal_diary/config"
	"legal_diary/models"
	"legal_diary/services"
	"legal_diary/services/gcal"
	"legal_diary/services/judicial"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "diary2026secret"

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.New().String())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return testDB
}

// fakeProvider records calendar calls instead of talking to Google
type fakeProvider struct {
	mu      sync.Mutex
	events  map[string]gcal.EventPayload
	nextID  int
	failing bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{events: make(map[string]gcal.EventPayload)}
}

func (p *fakeProvider) CreateOrUpdateEvent(ctx context.Context, credential *gcal.Credential, payload gcal.EventPayload) (*gcal.EventResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return nil, errors.New("backend error")
	}
	id := payload.EventID
	if id == "" {
		p.nextID++
		id = fmt.Sprintf("evt-%d", p.nextID)
	}
	p.events[id] = payload
	return &gcal.EventResult{EventID: id}, nil
}

func (p *fakeProvider) RefreshCredential(ctx context.Context, refreshToken string) (*gcal.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("invalid_grant")
	}
	return &gcal.Token{AccessToken: "access-refreshed", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*gcal.Token, error) {
	if code != "good-code" {
		return nil, errors.New("invalid_grant")
	}
	return &gcal.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) AccountEmail(ctx context.Context, token *gcal.Token) (string, error) {
	return "advocate@gmail.com", nil
}

func (p *fakeProvider) eventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	echo     *echo.Echo
	handler  *Handler
	provider *fakeProvider
	creds    *services.GormCredentialStore

	firm     *models.Firm
	admin    *models.User
	advocate *models.User
}

// newTestEnv wires the full router against an in-memory database. The clock
// is fixed at 2026-03-04 10:00 IST, which the court calendar marks as Holi.
func newTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t)
	cal, err := judicial.Default()
	require.NoError(t, err)

	key, err := services.GenerateEncryptionKey()
	require.NoError(t, err)
	enc, err := services.NewTokenEncryptor(key)
	require.NoError(t, err)
	creds := services.NewGormCredentialStore(db, enc)

	provider := newFakeProvider()
	store := services.NewLocalStore(t.TempDir())
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	h := &Handler{
		DB: db,
		Config: &config.Config{
			Environment:   "test",
			AppURL:        "http://localhost:8080",
			SessionSecret: "test-session-secret",
			Timezone:      "Asia/Kolkata",
		},
		Calendar:    cal,
		Sync:        services.NewCalendarSyncService(db, provider, creds, rate.NewLimiter(rate.Inf, 1), "Asia/Kolkata"),
		Provider:    provider,
		Credentials: creds,
		Documents:   services.NewDocumentService(db, store),
		Store:       store,
		AI:          services.NewAISummaryService(db, services.AISummaryConfig{}),
		Activity:    services.NewSafeActivityLogger(services.NewGormActivityLogger(db)),
		Logins:      services.NewLoginMonitor(),
		Now:         func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, ist) },
	}

	e := echo.New()
	RegisterRoutes(e, h, nil)

	env := &testEnv{t: t, db: db, echo: e, handler: h, provider: provider, creds: creds}
	env.firm = &models.Firm{Name: "Rao Associates", Timezone: "Asia/Kolkata"}
	require.NoError(t, db.Create(env.firm).Error)
	env.admin = env.createUser("anil@example.com", models.RoleAdmin)
	env.advocate = env.createUser("meera@example.com", models.RoleAdvocate)
	return env
}

func (env *testEnv) createUser(email, role string) *models.User {
	user, err := services.CreateUser(env.db, env.firm.ID, services.NewUserInput{
		Name:     email,
		Email:    email,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(env.t, err)
	return user
}

func (env *testEnv) token(user *models.User) string {
	session, err := services.CreateSession(env.db, user, "127.0.0.1", "test")
	require.NoError(env.t, err)
	return session.Token
}

func (env *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(env.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (env *testEnv) createCase(token, number string) *models.Case {
	rec := env.do(http.MethodPost, "/api/cases", token, map[string]string{
		"case_number": number,
		"title":       "Sharma v. Gupta",
		"client_name": "R. Sharma",
		"court_name":  "High Court",
	})
	require.Equal(env.t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Case
	decode(env.t, rec, &c)
	return &c
}

func (env *testEnv) scheduleHearing(token, caseID, date, hearingTime string) *models.Hearing {
	body := map[string]string{"hearing_date": date, "hearing_type": models.HearingTypeArguments}
	if hearingTime != "" {
		body["hearing_time"] = hearingTime
	}
	rec := env.do(http.MethodPost, "/api/cases/"+caseID+"/hearings", token, body)
	require.Equal(env.t, http.StatusCreated, rec.Code, rec.Body.String())
	var h models.Hearing
	decode(env.t, rec, &h)
	return &h
}
