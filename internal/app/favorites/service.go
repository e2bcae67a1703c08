// Package favorites lets signed-in users bookmark presets.
package favorites

import (
	"context"

	"presethub/internal/store"
)

// Store defines the persistence operations required for favorites.
type Store interface {
	AddFavorite(ctx context.Context, userID, slug string) error
	RemoveFavorite(ctx context.Context, userID, slug string) error
	FavoritesByUser(ctx context.Context, userID string) ([]store.PresetSummary, error)
}

// Service describes favorites operations used by HTTP handlers.
type Service interface {
	Favorite(ctx context.Context, userID, slug string) error
	Unfavorite(ctx context.Context, userID, slug string) error
	List(ctx context.Context, userID string) ([]store.PresetSummary, error)
}

type service struct {
	store Store
}

// New constructs a favorites Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

func (s *service) Favorite(ctx context.Context, userID, slug string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.AddFavorite(ctx, userID, slug)
}

func (s *service) Unfavorite(ctx context.Context, userID, slug string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.RemoveFavorite(ctx, userID, slug)
}

func (s *service) List(ctx context.Context, userID string) ([]store.PresetSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.FavoritesByUser(ctx, userID)
}
