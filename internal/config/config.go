package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds the application configuration. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	ServerPort   int
	DatabasePath string
	CORSOrigin   string

	// Session / token settings
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	// Multipart staging
	TempUploadDir string
	TempSweepSpec string // standard cron expression
	TempMaxAge    time.Duration

	// Media object storage (S3-compatible)
	MediaEndpoint  string
	MediaRegion    string
	MediaBucket    string
	MediaAccessKey string
	MediaSecretKey string
	MediaPublicURL string // public base URL the bucket is served from

	SecureCookies bool
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	accessSecret := getEnv("ACCESS_TOKEN_SECRET", "")
	refreshSecret := getEnv("REFRESH_TOKEN_SECRET", "")
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	// Compromise of one token class must not allow forging the other.
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	accessTTL, err := time.ParseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRY: %w", err)
	}
	refreshTTL, err := time.ParseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "240h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_EXPIRY: %w", err)
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	tempMaxAge, err := time.ParseDuration(getEnv("TEMP_MAX_AGE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEMP_MAX_AGE: %w", err)
	}

	return &Config{
		ServerPort:   port,
		DatabasePath: getEnv("DATABASE_PATH", "./cliptube.db"),
		CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:3000"),

		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		BcryptCost:         cost,

		TempUploadDir: getEnv("TEMP_UPLOAD_DIR", "./public/temp"),
		TempSweepSpec: getEnv("TEMP_SWEEP_SCHEDULE", "*/10 * * * *"),
		TempMaxAge:    tempMaxAge,

		MediaEndpoint:  getEnv("MEDIA_ENDPOINT", "http://localhost:9000"),
		MediaRegion:    getEnv("MEDIA_REGION", "us-east-1"),
		MediaBucket:    getEnv("MEDIA_BUCKET", "cliptube-media"),
		MediaAccessKey: getEnv("MEDIA_ACCESS_KEY", ""),
		MediaSecretKey: getEnv("MEDIA_SECRET_KEY", ""),
		MediaPublicURL: getEnv("MEDIA_PUBLIC_URL", "http://localhost:9000/cliptube-media"),

		SecureCookies: getEnv("APP_ENV", "development") == "production",
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
