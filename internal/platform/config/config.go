package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Blob backends understood by BLOB_BACKEND.
const (
	BlobBackendGCS    = "gcs"
	BlobBackendMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	DBStatementTimeout time.Duration
	MigrationsPath     string

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	LoginRateLimit    string // ulule/limiter formatted rate, e.g. "5-M"

	// Blob storage
	BlobBackend          string
	GCSBucket            string
	GCSSignerEmail       string
	GCSPrivateKeyPath    string
	BlobOpTimeout        time.Duration
	BlobDeleteBatchLimit int
	SignedURLTTL         time.Duration
	MaxUploadFiles       int
	MaxUploadBytes       int64

	// Interest accrual
	AccrualEnabled  bool
	AccrualCronSpec string
	AccrualTimezone string

	CORSAllowedOrigins []string
	PosthogAPIKey      string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", true)
	viper.SetDefault("DB_STATEMENT_TIMEOUT", "5s")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "p2p-loan-tracker")
	viper.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	viper.SetDefault("BLOB_BACKEND", BlobBackendGCS)
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("GCS_SIGNER_EMAIL", "")
	viper.SetDefault("GCS_PRIVATE_KEY_PATH", "")
	viper.SetDefault("BLOB_OP_TIMEOUT", "30s")
	viper.SetDefault("BLOB_DELETE_BATCH_LIMIT", 1000)
	viper.SetDefault("SIGNED_URL_TTL", "1h")
	viper.SetDefault("MAX_UPLOAD_FILES", 3)
	viper.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	viper.SetDefault("ACCRUAL_ENABLED", true)
	viper.SetDefault("ACCRUAL_CRON_SPEC", "0 0 * * *")
	viper.SetDefault("ACCRUAL_TIMEZONE", "UTC")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("POSTHOG_API_KEY", "")

	// Real environment variables override .env values and defaults.
	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:          viper.GetString("PGSQL_URL"),
		Port:                 viper.GetString("PORT"),
		IsProduction:         viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:        viper.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:       viper.GetString("MIGRATIONS_PATH"),
		JWTSecret:            viper.GetString("JWT_SECRET"),
		JWTIssuer:            viper.GetString("JWT_ISSUER"),
		LoginRateLimit:       viper.GetString("LOGIN_RATE_LIMIT"),
		BlobBackend:          strings.ToLower(viper.GetString("BLOB_BACKEND")),
		GCSBucket:            viper.GetString("GCS_BUCKET"),
		GCSSignerEmail:       viper.GetString("GCS_SIGNER_EMAIL"),
		GCSPrivateKeyPath:    viper.GetString("GCS_PRIVATE_KEY_PATH"),
		BlobDeleteBatchLimit: viper.GetInt("BLOB_DELETE_BATCH_LIMIT"),
		MaxUploadFiles:       viper.GetInt("MAX_UPLOAD_FILES"),
		MaxUploadBytes:       viper.GetInt64("MAX_UPLOAD_BYTES"),
		AccrualEnabled:       viper.GetBool("ACCRUAL_ENABLED"),
		AccrualCronSpec:      viper.GetString("ACCRUAL_CRON_SPEC"),
		AccrualTimezone:      viper.GetString("ACCRUAL_TIMEZONE"),
		PosthogAPIKey:        viper.GetString("POSTHOG_API_KEY"),
	}

	cfg.DBStatementTimeout = durationOrDefault("DB_STATEMENT_TIMEOUT", 5*time.Second)
	cfg.JWTExpiryDuration = durationOrDefault("JWT_EXPIRY_DURATION", time.Hour)
	cfg.BlobOpTimeout = durationOrDefault("BLOB_OP_TIMEOUT", 30*time.Second)
	cfg.SignedURLTTL = durationOrDefault("SIGNED_URL_TTL", time.Hour)

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	switch c.BlobBackend {
	case BlobBackendGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when BLOB_BACKEND=%s", BlobBackendGCS)
		}
	case BlobBackendMemory:
		if c.IsProduction {
			return fmt.Errorf("BLOB_BACKEND=%s is not allowed in production", BlobBackendMemory)
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	if c.BlobDeleteBatchLimit <= 0 {
		return fmt.Errorf("BLOB_DELETE_BATCH_LIMIT must be positive, got %d", c.BlobDeleteBatchLimit)
	}
	if c.MaxUploadFiles < 0 {
		return fmt.Errorf("MAX_UPLOAD_FILES must not be negative, got %d", c.MaxUploadFiles)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if _, err := time.LoadLocation(c.AccrualTimezone); err != nil {
		return fmt.Errorf("invalid ACCRUAL_TIMEZONE %q: %w", c.AccrualTimezone, err)
	}
	return nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}
