// Package httpapi wires the catalog's HTTP surface to the underlying
// services.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"presethub/internal/app/presets"
	"presethub/internal/auth"
	"presethub/internal/store"
)

// CatalogService exposes public browsing and rating workflows.
type CatalogService interface {
	List(ctx context.Context, filter store.PresetFilter) ([]store.PresetSummary, error)
	Get(ctx context.Context, slug string) (store.PresetDetail, error)
	Rate(ctx context.Context, slug, userID string, stars int) (float64, error)
}

// PresetService exposes the preset lifecycle workflows.
type PresetService interface {
	Create(ctx context.Context, in presets.CreateInput) (store.Preset, error)
	Update(ctx context.Context, slug, authorID string, in presets.UpdateInput) (store.Preset, error)
	Delete(ctx context.Context, slug, authorID string) error
	DownloadURL(ctx context.Context, slug string) (string, error)
}

// UserService exposes account workflows.
type UserService interface {
	Register(ctx context.Context, email, username, password string) (store.User, error)
	Login(ctx context.Context, email, password string) (store.User, error)
	Me(ctx context.Context, userID string) (store.UserProfile, error)
	Update(ctx context.Context, userID, username string, avatarURL *string) (store.User, error)
	Delete(ctx context.Context, userID string) error
	PublicProfile(ctx context.Context, username string) (store.PublicProfile, error)
}

// TagService exposes the tag vocabulary.
type TagService interface {
	List(ctx context.Context) ([]store.Tag, error)
}

// FavoriteService exposes bookmark workflows.
type FavoriteService interface {
	Favorite(ctx context.Context, userID, slug string) error
	Unfavorite(ctx context.Context, userID, slug string) error
	List(ctx context.Context, userID string) ([]store.PresetSummary, error)
}

// TokenProvider issues and verifies the bearer tokens used by the API.
type TokenProvider interface {
	AccessToken(userID, email, username string) (string, error)
	RefreshToken(userID string) (string, error)
	Verify(token string) (auth.Claims, error)
	RefreshTTL() time.Duration
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	catalog   CatalogService
	presets   PresetService
	users     UserService
	tags      TagService
	favorites FavoriteService
	tokens    TokenProvider

	maxUploadBytes int64
}

// Config collects the server's dependencies.
type Config struct {
	Catalog   CatalogService
	Presets   PresetService
	Users     UserService
	Tags      TagService
	Favorites FavoriteService
	Tokens    TokenProvider

	// MaxUploadBytes caps preset file uploads. Zero applies the default.
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 1 << 20

// New configures a Server with the given services.
func New(cfg Config) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Server{
		catalog:        cfg.Catalog,
		presets:        cfg.Presets,
		users:          cfg.Users,
		tags:           cfg.Tags,
		favorites:      cfg.Favorites,
		tokens:         cfg.Tokens,
		maxUploadBytes: maxUpload,
	}
}

// Routes exposes the HTTP handlers for the catalog API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)

	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/presets", s.handleCreatePreset)
	mux.HandleFunc("GET /api/presets/{slug}", s.handleGetPreset)
	mux.HandleFunc("PUT /api/presets/{slug}", s.handleUpdatePreset)
	mux.HandleFunc("DELETE /api/presets/{slug}", s.handleDeletePreset)
	mux.HandleFunc("POST /api/presets/{slug}/rate", s.handleRatePreset)
	mux.HandleFunc("GET /api/presets/{slug}/download", s.handleDownloadPreset)
	mux.HandleFunc("PUT /api/presets/{slug}/favorite", s.handleAddFavorite)
	mux.HandleFunc("DELETE /api/presets/{slug}/favorite", s.handleRemoveFavorite)

	mux.HandleFunc("GET /api/users/me", s.handleMe)
	mux.HandleFunc("PUT /api/users/me", s.handleUpdateMe)
	mux.HandleFunc("DELETE /api/users/me", s.handleDeleteMe)
	mux.HandleFunc("GET /api/users/me/favorites", s.handleListFavorites)
	mux.HandleFunc("GET /api/users/{username}", s.handlePublicProfile)

	mux.HandleFunc("GET /api/tags", s.handleListTags)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

// authenticate extracts and verifies the bearer token. It reports whether a
// token was present at all, so endpoints with optional auth can tell an
// anonymous caller from one holding a bad token.
func (s *Server) authenticate(r *http.Request) (auth.Claims, bool, error) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return auth.Claims{}, false, nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Claims{}, true, err
	}
	return claims, true, nil
}

// requireUser verifies the caller's token and writes the 401 response itself
// when the request cannot be attributed to a user.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, present, err := s.authenticate(r)
	if !present {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return auth.Claims{}, false
	}
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
		return auth.Claims{}, false
	}
	return claims, true
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
