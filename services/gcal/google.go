package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultEventDuration is used for timed hearings
const DefaultEventDuration = time.Hour

// GoogleProvider stores hearing events in Google Calendar
type GoogleProvider struct {
	oauth      *oauth2.Config
	calendarID string
	endpoint   string
	httpClient *http.Client
}

// GoogleOption customises a GoogleProvider
type GoogleOption func(*GoogleProvider)

// WithEndpoint points the Calendar API client at another base URL
func WithEndpoint(endpoint string) GoogleOption {
	return func(p *GoogleProvider) {
		p.endpoint = endpoint
	}
}

// WithOAuthEndpoint replaces Google's OAuth endpoint
func WithOAuthEndpoint(endpoint oauth2.Endpoint) GoogleOption {
	return func(p *GoogleProvider) {
		p.oauth.Endpoint = endpoint
	}
}

// WithHTTPClient sets the base HTTP client used for API and token calls
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.httpClient = client
	}
}

// NewGoogleProvider builds a provider from OAuth client settings
func NewGoogleProvider(clientID, clientSecret, redirectURL, calendarID string, opts ...GoogleOption) *GoogleProvider {
	if calendarID == "" {
		calendarID = "primary"
	}
	p := &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope},
		},
		calendarID: calendarID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GoogleProvider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *GoogleProvider) service(ctx context.Context, token *Token) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	})
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(p.clientContext(ctx), ts))}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	return calendar.NewService(ctx, opts...)
}

// CreateOrUpdateEvent updates payload.EventID when set, recreating the event
// if Google no longer has it
func (p *GoogleProvider) CreateOrUpdateEvent(ctx context.Context, credential *Credential, payload EventPayload) (*EventResult, error) {
	if credential == nil {
		return nil, errors.New("credential is required")
	}
	svc, err := p.service(ctx, &credential.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	event := buildEvent(payload)

	var stored *calendar.Event
	if payload.EventID != "" {
		stored, err = svc.Events.Update(p.calendarID, payload.EventID, event).Context(ctx).Do()
		if isNotFound(err) {
			stored, err = nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update event %s: %w", payload.EventID, err)
		}
	}
	if stored == nil {
		stored, err = svc.Events.Insert(p.calendarID, event).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to create event: %w", err)
		}
	}

	updated := time.Now().UTC()
	if stored.Updated != "" {
		if t, perr := time.Parse(time.RFC3339, stored.Updated); perr == nil {
			updated = t
		}
	}

	return &EventResult{EventID: stored.Id, UpdatedAt: updated, Link: stored.HtmlLink}, nil
}

func buildEvent(payload EventPayload) *calendar.Event {
	event := &calendar.Event{
		Summary:     payload.Summary,
		Description: payload.Description,
		Location:    payload.Location,
	}

	day := time.Date(payload.Date.Year(), payload.Date.Month(), payload.Date.Day(), 0, 0, 0, 0, time.UTC)
	if payload.StartMinute == nil {
		event.Start = &calendar.EventDateTime{Date: day.Format("2006-01-02")}
		event.End = &calendar.EventDateTime{Date: day.AddDate(0, 0, 1).Format("2006-01-02")}
		return event
	}

	loc := time.UTC
	if payload.TimeZone != "" {
		if l, err := time.LoadLocation(payload.TimeZone); err == nil {
			loc = l
		}
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), *payload.StartMinute/60, *payload.StartMinute%60, 0, 0, loc)
	duration := payload.Duration
	if duration <= 0 {
		duration = DefaultEventDuration
	}
	event.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()}
	event.End = &calendar.EventDateTime{DateTime: start.Add(duration).Format(time.RFC3339), TimeZone: loc.String()}
	return event
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}

// RefreshCredential trades a refresh token for a new access token
func (p *GoogleProvider) RefreshCredential(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token stored")
	}
	ts := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return fromOAuth(tok, refreshToken), nil
}

// AuthCodeURL is the consent page URL; offline access yields a refresh token
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Token, error) {
	tok, err := p.oauth.Exchange(p.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return fromOAuth(tok, ""), nil
}

// AccountEmail returns the id of the user's primary calendar, which is the
// Google account address
func (p *GoogleProvider) AccountEmail(ctx context.Context, token *Token) (string, error) {
	svc, err := p.service(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to create calendar client: %w", err)
	}
	cal, err := svc.Calendars.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read primary calendar: %w", err)
	}
	return cal.Id, nil
}

// fromOAuth keeps the previous refresh token when Google does not rotate it
func fromOAuth(tok *oauth2.Token, previousRefresh string) *Token {
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}
