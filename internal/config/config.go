package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port     string
	Database DatabaseConfig
	Google   GoogleConfig
	Drive    DriveConfig
	AI       AIConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// GoogleConfig holds the service account identity used for Drive and the
// Workspace directory. The private key may arrive with literal \n sequences
// from a .env file; the client constructor normalizes them.
type GoogleConfig struct {
	ServiceAccountEmail string
	PrivateKey          string
	ImpersonateUser     string
	CustomerID          string
}

// DriveConfig names the fixed folder hierarchy roots.
type DriveConfig struct {
	BoiseFolderID     string
	TwinFallsFolderID string
	PendingFolderID   string
	ImportSourceID    string
}

// AIConfig holds the extraction model credentials. The backup key is only
// consulted after a quota failure on the primary.
type AIConfig struct {
	APIKey       string
	BackupAPIKey string
	Model        string
}

// Load loads configuration from environment variables. Missing credentials are
// not fatal here; each adapter validates what it needs at construction time.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "3210"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "contractdesk"),
		},
		Google: GoogleConfig{
			ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_CLIENT_EMAIL"),
			PrivateKey:          os.Getenv("GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY"),
			ImpersonateUser:     os.Getenv("GOOGLE_ADMIN_USER_TO_IMPERSONATE"),
			CustomerID:          os.Getenv("GOOGLE_CUSTOMER_ID"),
		},
		Drive: DriveConfig{
			BoiseFolderID:     os.Getenv("DRIVE_BOISE_FOLDER_ID"),
			TwinFallsFolderID: os.Getenv("DRIVE_TWIN_FALLS_FOLDER_ID"),
			PendingFolderID:   os.Getenv("DRIVE_PENDING_FOLDER_ID"),
			ImportSourceID:    os.Getenv("DRIVE_IMPORT_SOURCE_FOLDER_ID"),
		},
		AI: AIConfig{
			APIKey:       os.Getenv("GOOGLE_API_KEY"),
			BackupAPIKey: os.Getenv("GOOGLE_BACKUP_API_KEY"),
			Model:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
