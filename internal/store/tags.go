package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Tag classifies presets along one axis, such as tone or amp model.
type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ListTags returns all tags ordered by category, then name.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category
		FROM tags
		ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// TagsByPreset returns the tags attached to a preset.
func (s *Store) TagsByPreset(ctx context.Context, presetID string) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.category
		FROM tags t
		JOIN preset_tags pt ON pt.tag_id = t.id
		WHERE pt.preset_id = $1
		ORDER BY t.category, t.name
	`, presetID)
	if err != nil {
		return nil, fmt.Errorf("select preset tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// SeedTags inserts the given tags if the table is empty. Startup calls this
// on every boot; an already-seeded table is left alone.
func (s *Store) SeedTags(ctx context.Context, tags []Tag) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tags
	`).Scan(&count); err != nil {
		return fmt.Errorf("count tags: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, t := range tags {
		id := t.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, category) DO NOTHING
	`, id, t.Name, t.Category); err != nil {
			return fmt.Errorf("insert tag %q: %w", t.Name, err)
		}
	}

	return nil
}
