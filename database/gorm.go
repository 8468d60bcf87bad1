package database

import (
	"fmt"
	"log"
	"time"

	"github.com/vetcaselab/vetcase-api/config"
	"github.com/vetcaselab/vetcase-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface the rest of the app uses to reach the database
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns the underlying *gorm.DB
	GetDB() interface{}
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := AutoMigrate(s.db)
	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// AutoMigrate creates/updates the schema for every model. Shared with the
// in-memory test database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// User models
		&model.User{},
		&model.UserProfile{},

		// Catalog models
		&model.CaseCategory{},
		&model.SubCategory{},
		&model.Case{},
		&model.LabTestGroup{},
		&model.ObservationOption{},
		&model.Slide{},
		&model.Bookmark{},

		// Progress models
		&model.UserProgress{},
		&model.UserObservationSelection{},

		// Billing models
		&model.SubscriptionPlan{},
		&model.Subscription{},
		&model.Payment{},

		// Notifications
		&model.Notification{},

		// Audit & logging models
		&model.CronJobLog{},
	)
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
