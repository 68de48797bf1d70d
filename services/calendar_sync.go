package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"legal_diary/models"
	"legal_diary/services/gcal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TokenRefreshLeeway is how close to expiry a token is refreshed before use
const TokenRefreshLeeway = 5 * time.Minute

var (
	calendarSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "legal_diary_calendar_sync_total",
		Help: "Hearing calendar sync attempts by result",
	}, []string{"result"})

	tokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "legal_diary_calendar_token_refresh_total",
		Help: "Calendar access token refreshes by result",
	}, []string{"result"})
)

// SyncFailure explains why one hearing of a batch did not sync
type SyncFailure struct {
	HearingID string `json:"hearing_id"`
	Error     string `json:"error"`
}

// SyncResult is the outcome of a batch sync
type SyncResult struct {
	Synced   int           `json:"synced"`
	Failed   int           `json:"failed"`
	Failures []SyncFailure `json:"failures,omitempty"`
}

// IsSynced reports whether the hearing's sync record is in the SYNCED state.
// A missing record or any other state counts as unsynced.
func IsSynced(hearing *models.Hearing) bool {
	return hearing != nil && hearing.CalendarSync != nil && hearing.CalendarSync.Status == models.SyncStatusSynced
}

// UnsyncedHearings returns the hearings not yet mirrored, keeping order.
// Sync records must be preloaded.
func UnsyncedHearings(hearings []models.Hearing) []models.Hearing {
	unsynced := make([]models.Hearing, 0, len(hearings))
	for i := range hearings {
		if !IsSynced(&hearings[i]) {
			unsynced = append(unsynced, hearings[i])
		}
	}
	return unsynced
}

// CalendarSyncService mirrors hearings into a user's external calendar and
// owns every write to calendar_syncs.
//
// Two concurrent syncs of the same hearing are not coordinated: both reach
// the provider and the later write to the sync record wins.
type CalendarSyncService struct {
	db          *gorm.DB
	provider    gcal.Provider
	credentials CredentialStore
	limiter     *rate.Limiter
	timeZone    string
	now         func() time.Time
}

// NewCalendarSyncService wires the tracker. limiter may be nil.
func NewCalendarSyncService(db *gorm.DB, provider gcal.Provider, credentials CredentialStore, limiter *rate.Limiter, timeZone string) *CalendarSyncService {
	return &CalendarSyncService{
		db:          db,
		provider:    provider,
		credentials: credentials,
		limiter:     limiter,
		timeZone:    timeZone,
		now:         time.Now,
	}
}

func (s *CalendarSyncService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// activeCredential loads the user's credential and refreshes it once when it
// is expired or about to expire. A failed refresh deletes the credential.
func (s *CalendarSyncService) activeCredential(ctx context.Context, userID string) (*gcal.Credential, error) {
	cred, err := s.credentials.GetCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrCalendarNotConnected
	}

	if !needsRefresh(cred, s.now()) {
		return cred, nil
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	tok, err := s.provider.RefreshCredential(ctx, cred.RefreshToken)
	if err != nil {
		tokenRefreshTotal.WithLabelValues("failure").Inc()
		log.Printf("[SYNC] Token refresh failed for user %s, removing credential: %v", userID, err)
		if delErr := s.credentials.DeleteCredential(ctx, userID); delErr != nil {
			log.Printf("[SYNC] Failed to delete expired credential for user %s: %v", userID, delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}
	tokenRefreshTotal.WithLabelValues("success").Inc()

	if tok.RefreshToken == "" {
		tok.RefreshToken = cred.RefreshToken
	}
	cred.Token = *tok
	if err := s.credentials.SaveCredential(ctx, userID, cred); err != nil {
		return nil, fmt.Errorf("failed to store refreshed credential: %w", err)
	}
	return cred, nil
}

// needsRefresh reports whether the access token is expired or within the
// leeway. An unknown expiry is refreshed when a refresh token exists; without
// one the token is used as is and the provider rejects it if it is stale.
func needsRefresh(cred *gcal.Credential, now time.Time) bool {
	if cred.Expiry.IsZero() {
		return cred.RefreshToken != ""
	}
	return !cred.Expiry.After(now.Add(TokenRefreshLeeway))
}

// SyncOne creates or updates the calendar event for a hearing under userID's
// credential and records the result. Provider failures mark an existing
// record FAILED and return ErrProvider; nothing is retried.
func (s *CalendarSyncService) SyncOne(ctx context.Context, userID string, hearing *models.Hearing) (*models.CalendarSync, error) {
	if hearing == nil || hearing.ID == "" {
		return nil, validationErrorf("hearing is required")
	}

	cred, err := s.activeCredential(ctx, userID)
	if err != nil {
		calendarSyncTotal.WithLabelValues(syncResultLabel(err)).Inc()
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if hearing.Case == nil {
		var c models.Case
		if err := db.First(&c, "id = ?", hearing.CaseID).Error; err != nil {
			return nil, fmt.Errorf("failed to load case for hearing %s: %w", hearing.ID, err)
		}
		hearing.Case = &c
	}

	payload, err := s.buildPayload(hearing)
	if err != nil {
		return nil, err
	}

	var existing *models.CalendarSync
	var record models.CalendarSync
	err = db.Where("hearing_id = ?", hearing.ID).First(&record).Error
	switch {
	case err == nil:
		existing = &record
		payload.EventID = record.ProviderEventID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	result, err := s.provider.CreateOrUpdateEvent(ctx, cred, payload)
	if err != nil {
		calendarSyncTotal.WithLabelValues("failed").Inc()
		log.Printf("[SYNC] Provider call failed for hearing %s: %v", hearing.ID, err)
		if existing != nil {
			msg := err.Error()
			if updErr := db.Model(existing).Updates(map[string]interface{}{
				"status":     models.SyncStatusFailed,
				"last_error": msg,
			}).Error; updErr != nil {
				return nil, updErr
			}
			existing.Status = models.SyncStatusFailed
			existing.LastError = &msg
			hearing.CalendarSync = existing
		}
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	syncedAt := result.UpdatedAt
	if syncedAt.IsZero() {
		syncedAt = s.now().UTC()
	}

	if existing == nil {
		record = models.CalendarSync{HearingID: hearing.ID}
	}
	record.UserID = userID
	record.ProviderEventID = result.EventID
	record.Status = models.SyncStatusSynced
	record.LastSyncedAt = &syncedAt
	record.LastError = nil

	if err := UpsertCalendarSync(db, &record); err != nil {
		return nil, err
	}

	calendarSyncTotal.WithLabelValues("synced").Inc()
	hearing.CalendarSync = &record
	return &record, nil
}

// SyncAll syncs each hearing independently. One failure never stops the
// batch and nothing is rolled back.
func (s *CalendarSyncService) SyncAll(ctx context.Context, userID string, hearings []models.Hearing) SyncResult {
	result := SyncResult{}
	for i := range hearings {
		if _, err := s.SyncOne(ctx, userID, &hearings[i]); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, SyncFailure{HearingID: hearings[i].ID, Error: err.Error()})
			continue
		}
		result.Synced++
	}
	log.Printf("[SYNC] Batch for user %s: %d synced, %d failed", userID, result.Synced, result.Failed)
	return result
}

// Disconnect removes the user's credential and every sync record for
// hearings under cases the user created
func (s *CalendarSyncService) Disconnect(ctx context.Context, userID string) (int64, error) {
	db := s.db.WithContext(ctx)

	createdCases := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Case{}).Select("id").Where("created_by_id = ?", userID)
	caseHearings := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Hearing{}).Select("id").Where("case_id IN (?)", createdCases)

	res := db.Where("hearing_id IN (?)", caseHearings).Delete(&models.CalendarSync{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete sync records: %w", res.Error)
	}

	if err := s.credentials.DeleteCredential(ctx, userID); err != nil {
		return res.RowsAffected, fmt.Errorf("failed to delete credential: %w", err)
	}
	return res.RowsAffected, nil
}

// Status reports whether the user has connected a calendar
func (s *CalendarSyncService) Status(ctx context.Context, userID string) (*gcal.Credential, error) {
	return s.credentials.GetCredential(ctx, userID)
}

func (s *CalendarSyncService) buildPayload(h *models.Hearing) (gcal.EventPayload, error) {
	c := h.Case
	payload := gcal.EventPayload{
		Summary:  fmt.Sprintf("%s: %s", c.CaseNumber, c.Title),
		Date:     h.HearingDate,
		TimeZone: s.timeZone,
	}

	if h.HearingTime != nil && strings.TrimSpace(*h.HearingTime) != "" {
		minutes, err := ParseHearingTime(*h.HearingTime)
		if err != nil {
			return payload, err
		}
		payload.StartMinute = &minutes
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Case: %s\n", c.CaseNumber)
	fmt.Fprintf(&desc, "Title: %s\n", c.Title)
	fmt.Fprintf(&desc, "Client: %s\n", c.ClientName)
	fmt.Fprintf(&desc, "Type: %s\n", h.HearingType)
	if h.CourtRoom != nil && *h.CourtRoom != "" {
		fmt.Fprintf(&desc, "Court room: %s\n", *h.CourtRoom)
	}
	if h.Notes != nil && *h.Notes != "" {
		fmt.Fprintf(&desc, "\nNotes: %s\n", *h.Notes)
	}
	payload.Description = desc.String()

	location := c.CourtName
	if h.CourtRoom != nil && *h.CourtRoom != "" {
		if location != "" {
			location += ", "
		}
		location += *h.CourtRoom
	}
	payload.Location = location

	return payload, nil
}

func syncResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrCalendarNotConnected):
		return "not_connected"
	case errors.Is(err, ErrAuthExpired):
		return "auth_expired"
	default:
		return "failed"
	}
}

// UpsertCalendarSync writes the single sync record of a hearing
func UpsertCalendarSync(db *gorm.DB, record *models.CalendarSync) error {
	if record.ID == "" {
		var existing models.CalendarSync
		err := db.Where("hearing_id = ?", record.HearingID).First(&existing).Error
		if err == nil {
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if record.ID == "" {
		return db.Create(record).Error
	}
	return db.Save(record).Error
}

// DeleteHearingSync removes the sync record of a hearing, if any
func DeleteHearingSync(db *gorm.DB, hearingID string) error {
	return db.Where("hearing_id = ?", hearingID).Delete(&models.CalendarSync{}).Error
}

// MarkSyncStale moves a SYNCED record back to PENDING after the hearing's
// event fields change, so the next batch sync pushes them again. The provider
// event id is kept and the event is updated in place.
func MarkSyncStale(db *gorm.DB, hearingID string) error {
	return db.Model(&models.CalendarSync{}).
		Where("hearing_id = ? AND status = ?", hearingID, models.SyncStatusSynced).
		Update("status", models.SyncStatusPending).Error
}
