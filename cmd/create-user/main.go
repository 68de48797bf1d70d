package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"legal_diary/config"
	"legal_diary/db"
	"legal_diary/models"
	"legal_diary/services"

	"golang.org/x/term"
	"gorm.io/gorm"
)

// create-user bootstraps a firm administrator. An existing firm is joined by
// slug; any other firm name creates a new firm.
func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database, models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	fmt.Println("=== Create Firm Administrator ===")
	fmt.Println()

	firmName := prompt("Firm name or slug: ")
	name := prompt("Name: ")
	email := prompt("Email: ")

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	fmt.Println()

	if firmName == "" {
		log.Fatal("Firm name is required")
	}

	var user *models.User
	var firm models.Firm
	err = database.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("slug = ?", firmName).First(&firm).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			firm = models.Firm{Name: firmName, Timezone: cfg.Timezone}
			if err := tx.Create(&firm).Error; err != nil {
				return fmt.Errorf("failed to create firm: %w", err)
			}
		case err != nil:
			return err
		}

		user, err = services.CreateUser(tx, firm.ID, services.NewUserInput{
			Name:     name,
			Email:    email,
			Password: string(passwordBytes),
			Role:     models.RoleAdmin,
		})
		return err
	})
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ Administrator created successfully!")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Firm: %s (%s)\n", firm.Name, firm.Slug)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Println()
	fmt.Printf("Log in with POST %s/login\n", strings.TrimRight(cfg.AppURL, "/"))
}
