package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSeedTagsSkipsPopulatedTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*) FROM tags
	`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))

	if err := s.SeedTags(context.Background(), []Tag{{Name: "Clean", Category: "amp_model"}}); err != nil {
		t.Fatalf("SeedTags error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeedTagsInsertsIntoEmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*) FROM tags
	`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO tags (id, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, category) DO NOTHING
	`)).
		WithArgs(sqlmock.AnyArg(), "Clean", "amp_model").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SeedTags(context.Background(), []Tag{{Name: "Clean", Category: "amp_model"}}); err != nil {
		t.Fatalf("SeedTags error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTagsByPreset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT t.id, t.name, t.category
		FROM tags t
		JOIN preset_tags pt ON pt.tag_id = t.id
		WHERE pt.preset_id = $1
		ORDER BY t.category, t.name
	`)).
		WithArgs("preset-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category"}).
			AddRow("tag-1", "Crunch", "amp_model").
			AddRow("tag-2", "Blues", "genre"))

	tags, err := s.TagsByPreset(context.Background(), "preset-1")
	if err != nil {
		t.Fatalf("TagsByPreset error: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "Crunch" || tags[1].Category != "genre" {
		t.Fatalf("unexpected tags: %#v", tags)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
