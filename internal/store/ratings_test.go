package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"presethub/internal/ranking"
)

func TestRatePresetUpsertsAndRecomputesScore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	wantScore := ranking.Score(4, 5)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM presets
		WHERE slug = $1
	`)).
		WithArgs("warm-crunch").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("preset-1"))
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO ratings (id, preset_id, user_id, stars)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (preset_id, user_id) DO UPDATE
		SET stars = EXCLUDED.stars, updated_at = NOW()
	`)).
		WithArgs(sqlmock.AnyArg(), "preset-1", "user-1", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*), COUNT(*) FILTER (WHERE stars >= $2)
		FROM ratings
		WHERE preset_id = $1
	`)).
		WithArgs("preset-1", 4).
		WillReturnRows(sqlmock.NewRows([]string{"total", "favorable"}).AddRow(5, 4))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE presets
		SET wilson_score = $2
		WHERE id = $1
	`)).
		WithArgs("preset-1", wantScore).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.RatePreset(context.Background(), "warm-crunch", "user-1", 5)
	if err != nil {
		t.Fatalf("RatePreset error: %v", err)
	}
	if math.Abs(got-wantScore) > 1e-9 {
		t.Fatalf("expected score %f, got %f", wantScore, got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRatePresetRejectsStarsOutOfRange(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	for _, stars := range []int{0, 6, -1} {
		if _, err := s.RatePreset(context.Background(), "slug", "user-1", stars); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("stars=%d: expected ErrInvalidRating, got %v", stars, err)
		}
	}
}

func TestRatePresetUnknownSlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM presets
		WHERE slug = $1
	`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if _, err := s.RatePreset(context.Background(), "missing", "user-1", 3); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
