// Package store provides the catalog's persistence layer on Postgres. All
// invariants that must hold under concurrent requests (slug uniqueness, one
// rating per user and preset, score-vs-rating consistency) are enforced here
// through constraints and transactions rather than in-process locks.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserExists signals the username is already taken.
	ErrUserExists = errors.New("username already taken")
	// ErrEmailExists signals the email address is already registered.
	ErrEmailExists = errors.New("email already in use")
	// ErrInvalidCredentials indicates a sign-in failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound signals a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrPresetNotFound signals a missing preset record.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrForbidden indicates the caller does not own the preset.
	ErrForbidden = errors.New("not the preset owner")
	// ErrInvalidRating indicates a star value outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5 stars")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isUniqueViolationOn reports whether err is a unique violation on the named
// constraint, so callers can tell a slug collision from an email collision.
func isUniqueViolationOn(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}
