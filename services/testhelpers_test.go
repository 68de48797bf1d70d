package services

import (
	"fmt"
	"testing"
	"time"

	"legal_diary/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory database with every model migrated.
// The shared cache keeps all pool connections on the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func stringPtr(s string) *string {
	return &s
}

func date(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func createFirm(t *testing.T, db *gorm.DB, name string) *models.Firm {
	firm := &models.Firm{Name: name}
	require.NoError(t, db.Create(firm).Error)
	return firm
}

func createUser(t *testing.T, db *gorm.DB, firm *models.Firm, role string) *models.User {
	user := &models.User{
		Name:     role + " user",
		Email:    uuid.New().String() + "@example.com",
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	if firm != nil {
		user.FirmID = &firm.ID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCase(t *testing.T, db *gorm.DB, firm *models.Firm, creator *models.User, number string) *models.Case {
	c := &models.Case{
		FirmID:      firm.ID,
		CaseNumber:  number,
		Title:       "State v. " + number,
		ClientName:  "Client " + number,
		CourtName:   "High Court",
		CreatedByID: creator.ID,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func createHearing(t *testing.T, db *gorm.DB, c *models.Case, day string, hearingTime *string) *models.Hearing {
	h := &models.Hearing{
		CaseID:      c.ID,
		HearingDate: date(day),
		HearingTime: hearingTime,
		HearingType: models.HearingTypeArguments,
		CreatedByID: c.CreatedByID,
	}
	require.NoError(t, db.Create(h).Error)
	return h
}

func assignCase(t *testing.T, db *gorm.DB, c *models.Case, user *models.User) {
	require.NoError(t, db.Create(&models.CaseAssignment{CaseID: c.ID, UserID: user.ID}).Error)
}
