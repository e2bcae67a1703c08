package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAddFavoriteUnknownPreset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM presets
		WHERE slug = $1
	`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if err := s.AddFavorite(context.Background(), "user-1", "missing"); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddFavoriteIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM presets
		WHERE slug = $1
	`)).
		WithArgs("tone").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("preset-1"))
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO favorites (user_id, preset_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, preset_id) DO NOTHING
	`)).
		WithArgs("user-1", "preset-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.AddFavorite(context.Background(), "user-1", "tone"); err != nil {
		t.Fatalf("AddFavorite error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveFavoriteUnknownPreset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM favorites f
		USING presets p
		WHERE f.preset_id = p.id AND f.user_id = $1 AND p.slug = $2
	`)).
		WithArgs("user-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS (SELECT 1 FROM presets WHERE slug = $1)
	`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	if err := s.RemoveFavorite(context.Background(), "user-1", "missing"); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
