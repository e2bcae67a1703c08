// Package users implements account registration, sign-in, and profile
// management.
package users

import (
	"context"

	"presethub/internal/store"
)

// Store defines the persistence operations required for account workflows.
type Store interface {
	CreateUser(ctx context.Context, email, username, password string) (store.User, error)
	Authenticate(ctx context.Context, email, password string) (store.User, error)
	UserByID(ctx context.Context, id string) (store.UserProfile, error)
	UpdateUser(ctx context.Context, id, username string, avatarURL *string) (store.User, error)
	DeleteUser(ctx context.Context, id string) error
	ProfileByUsername(ctx context.Context, username string) (store.PublicProfile, error)
}

// Service describes account operations used by HTTP handlers.
type Service interface {
	Register(ctx context.Context, email, username, password string) (store.User, error)
	Login(ctx context.Context, email, password string) (store.User, error)
	Me(ctx context.Context, userID string) (store.UserProfile, error)
	Update(ctx context.Context, userID, username string, avatarURL *string) (store.User, error)
	Delete(ctx context.Context, userID string) error
	PublicProfile(ctx context.Context, username string) (store.PublicProfile, error)
}

type service struct {
	store Store
}

// New constructs a users Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

func (s *service) Register(ctx context.Context, email, username, password string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.CreateUser(ctx, email, username, password)
}

func (s *service) Login(ctx context.Context, email, password string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.Authenticate(ctx, email, password)
}

func (s *service) Me(ctx context.Context, userID string) (store.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return store.UserProfile{}, err
	}
	return s.store.UserByID(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID, username string, avatarURL *string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.UpdateUser(ctx, userID, username, avatarURL)
}

// Delete removes the account. Published presets survive as authorless
// entries; the caller's ratings disappear and the affected presets are
// rescored by the store.
func (s *service) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, userID)
}

func (s *service) PublicProfile(ctx context.Context, username string) (store.PublicProfile, error) {
	if err := ctx.Err(); err != nil {
		return store.PublicProfile{}, err
	}
	return s.store.ProfileByUsername(ctx, username)
}
