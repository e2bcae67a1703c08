package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddFavorite marks a preset as a favorite of the user. Favoriting a preset
// twice is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, slugVal string) error {
	var presetID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM presets
		WHERE slug = $1
	`, slugVal).Scan(&presetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPresetNotFound
		}
		return fmt.Errorf("lookup preset: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, preset_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, preset_id) DO NOTHING
	`, userID, presetID); err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}

	return nil
}

// RemoveFavorite unmarks the preset. Removing a favorite that was never set
// returns ErrPresetNotFound only when the preset itself does not exist.
func (s *Store) RemoveFavorite(ctx context.Context, userID, slugVal string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites f
		USING presets p
		WHERE f.preset_id = p.id AND f.user_id = $1 AND p.slug = $2
	`, userID, slugVal)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM presets WHERE slug = $1)
	`, slugVal).Scan(&exists); err != nil {
			return fmt.Errorf("probe preset: %w", err)
		}
		if !exists {
			return ErrPresetNotFound
		}
	}

	return nil
}

// FavoritesByUser lists the user's favorited presets, most recently
// favorited first. Presets the owner has since made private stay visible to
// the user who favorited them.
func (s *Store) FavoritesByUser(ctx context.Context, userID string) ([]PresetSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.slug, p.name, p.description, p.downloads, p.wilson_score,
			COALESCE(u.username, 'Guest'), p.created_at
		FROM favorites f
		JOIN presets p ON p.id = f.preset_id
		LEFT JOIN users u ON u.id = p.author_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select favorites: %w", err)
	}
	defer rows.Close()

	var summaries []PresetSummary
	for rows.Next() {
		var sum PresetSummary
		if err := rows.Scan(
			&sum.Slug,
			&sum.Name,
			&sum.Description,
			&sum.Downloads,
			&sum.WilsonScore,
			&sum.AuthorName,
			&sum.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return summaries, nil
}
