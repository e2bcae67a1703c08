// Package tags exposes the tag vocabulary used to classify presets.
package tags

import (
	"context"

	"presethub/internal/store"
)

// Store defines the persistence operations required for tags.
type Store interface {
	ListTags(ctx context.Context) ([]store.Tag, error)
	SeedTags(ctx context.Context, tags []store.Tag) error
}

// Service describes tag operations used by HTTP handlers and startup.
type Service interface {
	List(ctx context.Context) ([]store.Tag, error)
	Seed(ctx context.Context, tags []store.Tag) error
}

type service struct {
	store Store
}

// New constructs a tags Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

func (s *service) List(ctx context.Context) ([]store.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListTags(ctx)
}

func (s *service) Seed(ctx context.Context, tags []store.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.SeedTags(ctx, tags)
}
