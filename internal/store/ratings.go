package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"presethub/internal/ranking"
)

// favorableStars is the threshold at which a rating counts toward the
// positive side of the preset's score.
const favorableStars = 4

// RatePreset records a user's star rating for a preset and recomputes the
// preset's score in the same transaction, so the stored score never drifts
// from the ratings it summarizes. Re-rating replaces the user's previous
// stars instead of adding a second vote. The updated score is returned.
func (s *Store) RatePreset(ctx context.Context, slugVal, userID string, stars int) (float64, error) {
	if stars < 1 || stars > 5 {
		return 0, ErrInvalidRating
	}

	var score float64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var presetID string
		err := tx.QueryRowContext(ctx, `
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

		if _, err := tx.ExecContext(ctx, `
		INSERT INTO ratings (id, preset_id, user_id, stars)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (preset_id, user_id) DO UPDATE
		SET stars = EXCLUDED.stars, updated_at = NOW()
	`, uuid.New().String(), presetID, userID, stars); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		score, err = recomputeScore(ctx, tx, presetID)
		return err
	})
	if err != nil {
		return 0, err
	}

	return score, nil
}

// recomputeScore recalculates and persists the preset's ranking score from
// its current ratings. A preset with no ratings scores zero.
func recomputeScore(ctx context.Context, q querier, presetID string) (float64, error) {
	var total, favorable int
	if err := q.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE stars >= $2)
		FROM ratings
		WHERE preset_id = $1
	`, presetID, favorableStars).Scan(&total, &favorable); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}

	score := ranking.Score(favorable, total)

	if _, err := q.ExecContext(ctx, `
		UPDATE presets
		SET wilson_score = $2
		WHERE id = $1
	`, presetID, score); err != nil {
		return 0, fmt.Errorf("update score: %w", err)
	}

	return score, nil
}
