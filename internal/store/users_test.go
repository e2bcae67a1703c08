package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"presethub/internal/ranking"
)

func TestCreateUserNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO users (id, email, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`)).
		WithArgs(sqlmock.AnyArg(), "demo@example.com", "demo", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	got, err := s.CreateUser(context.Background(), "  Demo@Example.COM ", " demo ", "hunter22")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if got.Email != "demo@example.com" || got.Username != "demo" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO users (id, email, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	if _, err := s.CreateUser(context.Background(), "demo@example.com", "demo", "hunter22"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	selectUser := regexp.QuoteMeta(`
		SELECT id, email, username, avatar_url, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New: %v", err)
		}
		defer db.Close()

		s := New(db)

		mock.ExpectQuery(selectUser).
			WithArgs("demo@example.com").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "email", "username", "avatar_url", "password_hash", "created_at", "updated_at",
			}).AddRow("user-1", "demo@example.com", "demo", nil, string(hash), time.Now(), time.Now()))

		got, err := s.Authenticate(context.Background(), "Demo@Example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Authenticate error: %v", err)
		}
		if got.ID != "user-1" {
			t.Fatalf("unexpected user: %+v", got)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New: %v", err)
		}
		defer db.Close()

		s := New(db)

		mock.ExpectQuery(selectUser).
			WithArgs("demo@example.com").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "email", "username", "avatar_url", "password_hash", "created_at", "updated_at",
			}).AddRow("user-1", "demo@example.com", "demo", nil, string(hash), time.Now(), time.Now()))

		if _, err := s.Authenticate(context.Background(), "demo@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New: %v", err)
		}
		defer db.Close()

		s := New(db)

		mock.ExpectQuery(selectUser).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		if _, err := s.Authenticate(context.Background(), "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestDeleteUserRecomputesRatedPresets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT DISTINCT preset_id
		FROM ratings
		WHERE user_id = $1
	`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"preset_id"}).AddRow("preset-1"))
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM users
		WHERE id = $1
	`)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*), COUNT(*) FILTER (WHERE stars >= $2)
		FROM ratings
		WHERE preset_id = $1
	`)).
		WithArgs("preset-1", 4).
		WillReturnRows(sqlmock.NewRows([]string{"total", "favorable"}).AddRow(3, 1))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE presets
		SET wilson_score = $2
		WHERE id = $1
	`)).
		WithArgs("preset-1", ranking.Score(1, 3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.DeleteUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("DeleteUser error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT DISTINCT preset_id
		FROM ratings
		WHERE user_id = $1
	`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"preset_id"}))
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM users
		WHERE id = $1
	`)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := s.DeleteUser(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
