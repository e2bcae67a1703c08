package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"presethub/internal/storage"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL    string
	Addr           string
	AllowedOrigins []string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	MaxUploadBytes int64

	LogLevel  string
	LogFormat string

	S3 storage.S3Config
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET env var is required")
	}

	cfg := Config{
		DatabaseURL:    dsn,
		Addr:           fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigins: splitList(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		JWTSecret:      secret,
		JWTIssuer:      envOrDefault("JWT_ISSUER", "presethub"),
		JWTAudience:    envOrDefault("JWT_AUDIENCE", "presethub-clients"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "json"),
		S3: storage.S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    envOrDefault("S3_REGION", "us-east-1"),
			KeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			AccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
		},
	}

	var err error
	if cfg.AccessTTL, err = envDuration("JWT_ACCESS_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = envDuration("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}

	maxUpload := envOrDefault("MAX_UPLOAD_BYTES", "1048576")
	if cfg.MaxUploadBytes, err = strconv.ParseInt(maxUpload, 10, 64); err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPLOAD_BYTES: %w", err)
	}

	return cfg, nil
}

// s3Configured reports whether every setting required for the S3 backend is
// present. A partial configuration is an error rather than a silent fallback.
func (c Config) s3Configured() (bool, error) {
	set := 0
	for _, v := range []string{c.S3.Bucket, c.S3.KeyID, c.S3.AccessKey} {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		return false, nil
	case 3:
		return true, nil
	default:
		return false, errors.New("S3_BUCKET, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
