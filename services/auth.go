package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"legal_diary/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// SessionTokenLength is the length of the session token in bytes (64 chars hex)
	SessionTokenLength = 32
	// DefaultSessionDuration is the default session duration (7 days)
	DefaultSessionDuration = 7 * 24 * time.Hour
	// MinPasswordLength for new accounts
	MinPasswordLength = 10
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and inactive accounts
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionNotFound means the bearer token matches no live session
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired means the bearer token's session has expired
	ErrSessionExpired = errors.New("session expired")
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword verifies a password against a hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword requires a minimum length with at least one letter and one digit
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return validationErrorf("password must be at least %d characters long", MinPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return validationErrorf("password must contain letters and numbers")
	}
	return nil
}

// GenerateSessionToken generates a cryptographically secure random token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Authenticate checks an email and password and stamps the login time
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Preload("Firm").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive || !CheckPassword(password, user.Password) {
		LogSecurityEvent("LOGIN_FAILED", user.ID, "bad password or inactive account")
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Printf("[AUTH] Failed to update last login for %s: %v", user.ID, err)
	}
	user.LastLoginAt = &now
	return &user, nil
}

// CreateSession creates a new session for a user
func CreateSession(db *gorm.DB, user *models.User, ipAddress, userAgent string) (*models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		FirmID:    user.FirmID,
		Token:     token,
		ExpiresAt: time.Now().Add(DefaultSessionDuration),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession returns the live session for token with its user and firm loaded
func ValidateSession(db *gorm.DB, token string) (*models.Session, error) {
	var session models.Session
	err := db.Preload("User.Firm").Preload("Firm").
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if session.IsExpired() {
		db.Delete(&session)
		return nil, ErrSessionExpired
	}
	if !session.User.IsActive {
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// DeleteSession deletes a session (logout)
func DeleteSession(db *gorm.DB, token string) error {
	if err := db.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes all expired sessions from the database
func CleanupExpiredSessions(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAllUserSessions deletes all sessions for a specific user
func DeleteAllUserSessions(db *gorm.DB, userID string) error {
	result := db.Where("user_id = ?", userID).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("[AUTH] Deleted %d sessions for user %s", result.RowsAffected, userID)
	}
	return nil
}

// NewUserInput carries the fields for creating a firm member
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

// CreateUser adds a user to a firm. firmID may be empty for the bootstrap CLI.
func CreateUser(db *gorm.DB, firmID string, in NewUserInput) (*models.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, validationErrorf("name and email are required")
	}
	if !models.IsValidRole(in.Role) {
		return nil, validationErrorf("unknown role %q", in.Role)
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Role:     in.Role,
		Phone:    in.Phone,
		IsActive: true,
	}
	if firmID != "" {
		user.FirmID = &firmID
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// ListFirmUsers returns the firm's users ordered by name
func ListFirmUsers(db *gorm.DB, firmID string) ([]models.User, error) {
	var users []models.User
	err := db.Where("firm_id = ?", firmID).Order("name ASC").Find(&users).Error
	return users, err
}

// DeactivateUser disables a firm member and ends their sessions. Admins
// cannot deactivate themselves.
func DeactivateUser(db *gorm.DB, actor *models.User, userID string) (*models.User, error) {
	if actor.ID == userID {
		return nil, validationErrorf("you cannot deactivate your own account")
	}

	var user models.User
	err := db.Where("id = ? AND firm_id = ?", userID, *actor.FirmID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := db.Model(&user).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate user: %w", err)
	}
	user.IsActive = false

	if err := DeleteAllUserSessions(db, user.ID); err != nil {
		return nil, err
	}
	return &user, nil
}

// LogSecurityEvent logs security-related events
func LogSecurityEvent(eventType, userID, details string) {
	log.Printf("[SECURITY] %s | User: %s | Details: %s", eventType, userID, details)
}
