package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vetcaselab/vetcase-api/database"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gormDB := store.GetDB().(*gorm.DB)

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("VetCase - Database Seeding")
	fmt.Println(separator)

	if err := database.RunSeeds(gormDB); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully")
	fmt.Println()
	fmt.Println("Admin user is created from ADMIN_PHONE and ADMIN_PASSWORD.")
	fmt.Println("If not set, admin user creation is skipped.")
}
