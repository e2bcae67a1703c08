package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"presethub/internal/app/presets"
	"presethub/internal/auth"
	"presethub/internal/logging"
	"presethub/internal/storage"
	"presethub/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fallback := logging.Setup(logging.Config{})
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	dataStore := store.New(db)

	if err := seedTags(context.Background(), dataStore); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}

	tokens, err := auth.NewManager(auth.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("token manager setup failed")
	}

	objects, err := newObjectStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("object storage setup failed")
	}

	handler := newHTTPHandler(cfg, dataStore, objects, tokens)

	logger.Info().Str("addr", cfg.Addr).Msg("starting API server")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// newObjectStorage picks the S3 backend when configured and otherwise falls
// back to the in-memory store, which only suits local development.
func newObjectStorage(cfg Config, logger zerolog.Logger) (presets.ObjectStorage, error) {
	configured, err := cfg.s3Configured()
	if err != nil {
		return nil, err
	}
	if configured {
		return storage.NewS3(cfg.S3)
	}

	logger.Warn().Msg("S3 not configured, using in-memory object storage")
	return storage.NewMemory(), nil
}
