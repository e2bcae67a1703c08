package main

import (
	"net/http"

	"presethub/internal/app/catalog"
	"presethub/internal/app/favorites"
	"presethub/internal/app/presets"
	"presethub/internal/app/tags"
	"presethub/internal/app/users"
	"presethub/internal/auth"
	"presethub/internal/http/middleware"
	"presethub/internal/httpapi"
	"presethub/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store, objects presets.ObjectStorage, tokens *auth.Manager) http.Handler {
	catalogSvc := catalog.New(dataStore)
	presetSvc := presets.New(dataStore, objects)
	userSvc := users.New(dataStore)
	tagSvc := tags.New(dataStore)
	favoriteSvc := favorites.New(dataStore)

	srv := httpapi.New(httpapi.Config{
		Catalog:        catalogSvc,
		Presets:        presetSvc,
		Users:          userSvc,
		Tags:           tagSvc,
		Favorites:      favoriteSvc,
		Tokens:         tokens,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	handler := middleware.CORS(cfg.AllowedOrigins)(srv.Routes())
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)

	return handler
}
