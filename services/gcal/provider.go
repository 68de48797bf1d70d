// Package gcal talks to the external calendar that hearings are mirrored into.
package gcal

import (
	"context"
	"time"
)

// Token is a decrypted OAuth token pair
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// Credential is a user's decrypted calendar credential
type Credential struct {
	UserID       string
	AccountEmail string
	Token
}

// EventPayload describes the calendar event for one hearing
type EventPayload struct {
	// EventID is the event created by an earlier sync; empty creates a new one
	EventID     string
	Summary     string
	Description string
	Location    string
	Date        time.Time
	// StartMinute is minutes after midnight; nil makes an all-day event
	StartMinute *int
	Duration    time.Duration
	TimeZone    string
}

// EventResult identifies the event the provider stored
type EventResult struct {
	EventID   string
	UpdatedAt time.Time
	Link      string
}

// Provider is an external calendar. Implementations must be safe for
// concurrent use.
type Provider interface {
	CreateOrUpdateEvent(ctx context.Context, credential *Credential, payload EventPayload) (*EventResult, error)
	RefreshCredential(ctx context.Context, refreshToken string) (*Token, error)

	// Connect flow
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
	AccountEmail(ctx context.Context, token *Token) (string, error)
}
