package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown, so sign-in takes
// the same time whether or not the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// User is an account record. The password hash never leaves this package.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserProfile is a user together with how many presets they have published.
type UserProfile struct {
	User
	PresetCount int `json:"presetCount"`
}

// PublicProfile is the view of an account shown to other users, without the
// email address.
type PublicProfile struct {
	Username  string          `json:"username"`
	AvatarURL *string         `json:"avatarUrl,omitempty"`
	JoinedAt  time.Time       `json:"joinedAt"`
	Presets   []PresetSummary `json:"presets"`
}

// CreateUser registers a new account. Emails are stored lowercased so
// sign-in is case-insensitive.
func (s *Store) CreateUser(ctx context.Context, email, username, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:       uuid.New().String(),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Username: strings.TrimSpace(username),
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.Username, string(hash)).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolationOn(err, "users_email_key"):
			return User{}, ErrEmailExists
		case isUniqueViolationOn(err, "users_username_key"):
			return User{}, ErrUserExists
		case isUniqueViolation(err):
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

// Authenticate verifies an email and password pair and returns the matching
// account. Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	var (
		u    User
		hash string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, avatar_url, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&u.ID, &u.Email, &u.Username, &u.AvatarURL, &hash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	return u, nil
}

// UserByID returns the account's own profile with its preset count.
func (s *Store) UserByID(ctx context.Context, id string) (UserProfile, error) {
	var p UserProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.username, u.avatar_url, u.created_at, u.updated_at,
			(SELECT COUNT(*) FROM presets p WHERE p.author_id = u.id)
		FROM users u
		WHERE u.id = $1
	`, id).Scan(&p.ID, &p.Email, &p.Username, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt, &p.PresetCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserProfile{}, ErrUserNotFound
		}
		return UserProfile{}, fmt.Errorf("lookup user: %w", err)
	}
	return p, nil
}

// UpdateUser changes the account's username and avatar.
func (s *Store) UpdateUser(ctx context.Context, id, username string, avatarURL *string) (User, error) {
	u := User{ID: id, Username: strings.TrimSpace(username), AvatarURL: avatarURL}

	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET username = $2, avatar_url = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING email, created_at, updated_at
	`, id, u.Username, avatarURL).Scan(&u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return User{}, ErrUserNotFound
		case isUniqueViolationOn(err, "users_username_key"):
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}

// DeleteUser removes the account. The user's ratings go with it, so every
// preset they had rated gets its score recomputed in the same transaction.
// Their published presets stay in the catalog without an author.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT preset_id
		FROM ratings
		WHERE user_id = $1
	`, id)
		if err != nil {
			return fmt.Errorf("collect rated presets: %w", err)
		}
		var presetIDs []string
		for rows.Next() {
			var presetID string
			if err := rows.Scan(&presetID); err != nil {
				rows.Close()
				return fmt.Errorf("scan preset id: %w", err)
			}
			presetIDs = append(presetIDs, presetID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate rated presets: %w", err)
		}
		rows.Close()

		res, err := tx.ExecContext(ctx, `
		DELETE FROM users
		WHERE id = $1
	`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrUserNotFound
		}

		for _, presetID := range presetIDs {
			if _, err := recomputeScore(ctx, tx, presetID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ProfileByUsername returns a user's public profile with their published
// presets, newest first.
func (s *Store) ProfileByUsername(ctx context.Context, username string) (PublicProfile, error) {
	var (
		p  PublicProfile
		id string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, avatar_url, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&id, &p.Username, &p.AvatarURL, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PublicProfile{}, ErrUserNotFound
		}
		return PublicProfile{}, fmt.Errorf("lookup user: %w", err)
	}

	p.Presets, err = s.ListPresets(ctx, PresetFilter{AuthorID: id, SortBy: "new", PageSize: 50})
	if err != nil {
		return PublicProfile{}, err
	}

	return p, nil
}
