package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"legal_diary/middleware"
	"legal_diary/models"
	"legal_diary/services"
	"legal_diary/services/gcal"

	"github.com/labstack/echo/v4"
)

// oauthStateTTL bounds how long a consent screen may stay open
const oauthStateTTL = 10 * time.Minute

var errInvalidState = errors.New("invalid or expired OAuth state")

type googleStatusResponse struct {
	Configured   bool   `json:"configured"`
	Connected    bool   `json:"connected"`
	AccountEmail string `json:"account_email,omitempty"`
}

// GoogleConnect returns the consent URL for linking the user's calendar
func (h *Handler) GoogleConnect(c echo.Context) error {
	if h.Provider == nil || h.Credentials == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Calendar sync is not configured")
	}
	user := middleware.GetCurrentUser(c)
	state := signOAuthState(h.Config.SessionSecret, user.ID, h.now().Add(oauthStateTTL))
	return c.JSON(http.StatusOK, map[string]string{"url": h.Provider.AuthCodeURL(state)})
}

// GoogleCallback finishes the consent flow and stores the credential
func (h *Handler) GoogleCallback(c echo.Context) error {
	if h.Provider == nil || h.Credentials == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Calendar sync is not configured")
	}
	if reason := c.QueryParam("error"); reason != "" {
		log.Printf("[SYNC] Calendar consent declined: %s", reason)
		return c.Redirect(http.StatusSeeOther, h.settingsURL("declined"))
	}

	userID, err := verifyOAuthState(h.Config.SessionSecret, c.QueryParam("state"), h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	var user models.User
	if err := h.DB.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errInvalidState.Error())
	}

	ctx := c.Request().Context()
	token, err := h.Provider.Exchange(ctx, code)
	if err != nil {
		log.Printf("[SYNC] Code exchange for user %s failed: %v", user.ID, err)
		return httpError(fmt.Errorf("%w: %v", services.ErrProvider, err))
	}

	email, err := h.Provider.AccountEmail(ctx, token)
	if err != nil {
		log.Printf("[SYNC] Could not read account for user %s: %v", user.ID, err)
	}

	credential := &gcal.Credential{UserID: user.ID, AccountEmail: email, Token: *token}
	if err := h.Credentials.SaveCredential(ctx, user.ID, credential); err != nil {
		return httpError(err)
	}

	c.Set(middleware.ContextKeyUser, &user)
	h.logActivity(c, models.ActivityConnect, services.ResourceCalendar, user.ID, email, "Connected Google Calendar")
	return c.Redirect(http.StatusSeeOther, h.settingsURL("connected"))
}

// GoogleStatus reports whether the user's calendar is linked
func (h *Handler) GoogleStatus(c echo.Context) error {
	resp := googleStatusResponse{Configured: h.Sync != nil}
	if h.Sync == nil {
		return c.JSON(http.StatusOK, resp)
	}

	credential, err := h.Sync.Status(c.Request().Context(), middleware.GetCurrentUser(c).ID)
	if err != nil {
		return httpError(err)
	}
	if credential != nil {
		resp.Connected = true
		resp.AccountEmail = credential.AccountEmail
	}
	return c.JSON(http.StatusOK, resp)
}

// GoogleDisconnect forgets the credential and the sync state of the user's cases
func (h *Handler) GoogleDisconnect(c echo.Context) error {
	if h.Sync == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Calendar sync is not configured")
	}
	user := middleware.GetCurrentUser(c)
	removed, err := h.Sync.Disconnect(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityDisconnect, services.ResourceCalendar, user.ID, "",
		fmt.Sprintf("Disconnected Google Calendar, %d sync records removed", removed))
	return c.JSON(http.StatusOK, map[string]int64{"removed_syncs": removed})
}

func (h *Handler) settingsURL(result string) string {
	return strings.TrimRight(h.Config.AppURL, "/") + "/settings/calendar?result=" + result
}

// signOAuthState binds a consent request to a user: "userID.expiry.mac"
func signOAuthState(secret, userID string, expires time.Time) string {
	payload := userID + "." + strconv.FormatInt(expires.Unix(), 10)
	return payload + "." + stateMAC(secret, payload)
}

func verifyOAuthState(secret, state string, now time.Time) (string, error) {
	parts := strings.Split(state, ".")
	if len(parts) != 3 || parts[0] == "" {
		return "", errInvalidState
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(stateMAC(secret, payload))) {
		return "", errInvalidState
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || now.Unix() > expires {
		return "", errInvalidState
	}
	return parts[0], nil
}

func stateMAC(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
