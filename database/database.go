package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lms-backend/config"
	"lms-backend/internal/domain/accounts"
	"lms-backend/internal/domain/billing"
	"lms-backend/internal/domain/centers"
	"lms-backend/internal/domain/classes"
	"lms-backend/internal/domain/money"
	"lms-backend/internal/domain/settings"
	"lms-backend/internal/domain/students"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.DB_URL
	if dsn == "" {
		log.Fatal("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	// Required for UUID generation.
	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Fatal("Failed to enable pgcrypto extension:", err)
	}

	if err := DB.AutoMigrate(
		// money movement
		&accounts.Account{},
		&billing.Payment{},
		&billing.StudentCharge{},

		// catalog
		&centers.Branch{},
		&classes.Class{},
		&classes.ClassSession{},
		&students.StudentProfile{},

		// runtime configuration
		&settings.Setting{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}

	seedSystemAccounts()

	log.Println("Connected and migrated successfully")
}

// seedSystemAccounts makes sure the two well-known SYSTEM accounts exist.
// Every cash intake and fee skim settles against them.
func seedSystemAccounts() {
	system := []accounts.Account{
		{OwnerID: accounts.CashIntakeOwnerID, OwnerType: accounts.OwnerSystem, Balance: money.Zero()},
		{OwnerID: accounts.RevenueOwnerID, OwnerType: accounts.OwnerSystem, Balance: money.Zero()},
	}
	for i := range system {
		if err := DB.Where("owner_id = ? AND owner_type = ?", system[i].OwnerID, system[i].OwnerType).
			FirstOrCreate(&system[i]).Error; err != nil {
			log.Fatal("Failed to seed system accounts:", err)
		}
	}
}
