package main

import (
	"context"
	"fmt"

	"presethub/internal/store"
)

// seedTags installs the initial tag vocabulary on an empty database. The
// categories mirror the amp's own classification: amp model channels,
// hardware generations, genres, and playing styles.
func seedTags(ctx context.Context, dataStore *store.Store) error {
	tags := []store.Tag{
		{Name: "Clean", Category: "amp_model"},
		{Name: "Crunch", Category: "amp_model"},
		{Name: "Lead", Category: "amp_model"},
		{Name: "Brit Hi", Category: "amp_model"},
		{Name: "Modern", Category: "amp_model"},

		{Name: "THR10II", Category: "amp_version"},
		{Name: "THR30II", Category: "amp_version"},
		{Name: "THR10", Category: "amp_version"},

		{Name: "Blues", Category: "genre"},
		{Name: "Metal", Category: "genre"},
		{Name: "Jazz", Category: "genre"},

		{Name: "High Gain", Category: "style"},
		{Name: "Ambient", Category: "style"},
		{Name: "Lo-Fi", Category: "style"},
	}

	if err := dataStore.SeedTags(ctx, tags); err != nil {
		return fmt.Errorf("seed tags: %w", err)
	}
	return nil
}
