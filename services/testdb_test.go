package services

import (
	"testing"

	"github.com/vetcaselab/vetcase-api/database"
	"github.com/vetcaselab/vetcase-api/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with all tables migrated
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, phone string) *model.User {
	t.Helper()
	user := &model.User{Phone: phone, Name: "Test User", Role: "student"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestCase(t *testing.T, db *gorm.DB, title string) *model.Case {
	t.Helper()
	svc := NewCaseService(db)
	c, err := svc.Create(CreateCaseInput{
		Title:            title,
		History:          "A test patient history",
		CorrectDiagnosis: "Chronic hepatitis",
		Explanation:      "Test explanation",
		Published:        true,
	})
	if err != nil {
		t.Fatalf("failed to create test case: %v", err)
	}
	return c
}
