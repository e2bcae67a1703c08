// Package catalog implements the public browsing and rating surface of the
// preset catalog.
package catalog

import (
	"context"

	"presethub/internal/store"
)

// Store defines the persistence operations required for browsing and rating.
type Store interface {
	ListPresets(ctx context.Context, filter store.PresetFilter) ([]store.PresetSummary, error)
	PresetBySlug(ctx context.Context, slug string) (store.Preset, error)
	TagsByPreset(ctx context.Context, presetID string) ([]store.Tag, error)
	RatePreset(ctx context.Context, slug, userID string, stars int) (float64, error)
}

// Service describes catalog operations used by HTTP handlers.
type Service interface {
	List(ctx context.Context, filter store.PresetFilter) ([]store.PresetSummary, error)
	Get(ctx context.Context, slug string) (store.PresetDetail, error)
	Rate(ctx context.Context, slug, userID string, stars int) (float64, error)
}

type service struct {
	store Store
}

// New constructs a catalog Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

func (s *service) List(ctx context.Context, filter store.PresetFilter) ([]store.PresetSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListPresets(ctx, filter)
}

func (s *service) Get(ctx context.Context, slug string) (store.PresetDetail, error) {
	if err := ctx.Err(); err != nil {
		return store.PresetDetail{}, err
	}

	p, err := s.store.PresetBySlug(ctx, slug)
	if err != nil {
		return store.PresetDetail{}, err
	}
	tags, err := s.store.TagsByPreset(ctx, p.ID)
	if err != nil {
		return store.PresetDetail{}, err
	}

	return store.PresetDetail{Preset: p, Tags: tags}, nil
}

func (s *service) Rate(ctx context.Context, slug, userID string, stars int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.RatePreset(ctx, slug, userID, stars)
}
