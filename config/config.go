package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV says we are in production
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV       string
	PORT         int
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Zarinpal payment gateway
	ZARINPAL_MERCHANT_ID string
	ZARINPAL_SANDBOX     bool
	PAYMENT_CALLBACK_URL string
	// SMS gateway (OTP delivery)
	SMS_API_KEY     string
	SMS_SENDER      string
	SMS_BASE_URL    string
	SMS_OTP_PATTERN string
	// S3-compatible object storage for slide images
	SPACES_BUCKET   string
	SPACES_REGION   string
	SPACES_ENDPOINT string
	SPACES_KEY      string
	SPACES_SECRET   string
	// Grading
	DIAGNOSIS_MATCHER string // substring (default), exact, keywords
}

// Get reads the environment into a flat struct with sane defaults
func Get() (*EnvironmentVariable, error) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sandbox, err := strconv.ParseBool(os.Getenv("ZARINPAL_SANDBOX"))
	if err != nil {
		sandbox = true
	}

	env := &EnvironmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		PORT:         port,
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Zarinpal
		ZARINPAL_MERCHANT_ID: os.Getenv("ZARINPAL_MERCHANT_ID"),
		ZARINPAL_SANDBOX:     sandbox,
		PAYMENT_CALLBACK_URL: os.Getenv("PAYMENT_CALLBACK_URL"),
		// SMS
		SMS_API_KEY:     os.Getenv("SMS_API_KEY"),
		SMS_SENDER:      os.Getenv("SMS_SENDER"),
		SMS_BASE_URL:    os.Getenv("SMS_BASE_URL"),
		SMS_OTP_PATTERN: os.Getenv("SMS_OTP_PATTERN"),
		// Spaces
		SPACES_BUCKET:   os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:   os.Getenv("SPACES_REGION"),
		SPACES_ENDPOINT: os.Getenv("SPACES_ENDPOINT"),
		SPACES_KEY:      os.Getenv("SPACES_KEY"),
		SPACES_SECRET:   os.Getenv("SPACES_SECRET"),
		// Grading
		DIAGNOSIS_MATCHER: os.Getenv("DIAGNOSIS_MATCHER"),
	}

	return env, nil
}
