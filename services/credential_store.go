package services

import (
	"context"
	"errors"
	"fmt"

	"legal_diary/models"
	"legal_diary/services/gcal"

	"gorm.io/gorm"
)

// CredentialStore keeps per-user calendar credentials. Callers only ever
// see decrypted values.
type CredentialStore interface {
	// GetCredential returns nil, nil when the user has not connected
	GetCredential(ctx context.Context, userID string) (*gcal.Credential, error)
	SaveCredential(ctx context.Context, userID string, credential *gcal.Credential) error
	DeleteCredential(ctx context.Context, userID string) error
}

// GormCredentialStore persists credentials in google_credentials with
// tokens sealed by a TokenEncryptor
type GormCredentialStore struct {
	db  *gorm.DB
	enc *TokenEncryptor
}

// NewGormCredentialStore creates a credential store
func NewGormCredentialStore(db *gorm.DB, enc *TokenEncryptor) *GormCredentialStore {
	return &GormCredentialStore{db: db, enc: enc}
}

func (s *GormCredentialStore) GetCredential(ctx context.Context, userID string) (*gcal.Credential, error) {
	var row models.GoogleCredential
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	access, err := s.enc.Decrypt(row.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refresh, err := s.enc.Decrypt(row.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	return &gcal.Credential{
		UserID:       row.UserID,
		AccountEmail: row.AccountEmail,
		Token: gcal.Token{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    row.TokenType,
			Expiry:       row.Expiry,
		},
	}, nil
}

func (s *GormCredentialStore) SaveCredential(ctx context.Context, userID string, credential *gcal.Credential) error {
	if credential == nil || credential.AccessToken == "" {
		return validationErrorf("credential has no access token")
	}

	access, err := s.enc.Encrypt(credential.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh, err := s.enc.Encrypt(credential.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	db := s.db.WithContext(ctx)
	var row models.GoogleCredential
	err = db.Where("user_id = ?", userID).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	row.UserID = userID
	row.AccessToken = access
	row.RefreshToken = refresh
	row.TokenType = credential.TokenType
	row.Expiry = credential.Expiry
	if credential.AccountEmail != "" {
		row.AccountEmail = credential.AccountEmail
	}

	if row.ID == "" {
		return db.Create(&row).Error
	}
	return db.Save(&row).Error
}

func (s *GormCredentialStore) DeleteCredential(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.GoogleCredential{}).Error
}
