// Package presets implements the preset lifecycle: publishing, editing,
// deleting, and downloading. It coordinates the metadata store with the
// object storage holding the preset files, keeping the two from drifting
// apart when either side fails.
package presets

import (
	"context"
	"errors"
	"io"

	"presethub/internal/store"
)

// ErrFileRequired signals that a create or update arrived without a preset
// file. Every revision of a preset carries its own file.
var ErrFileRequired = errors.New("preset file is required")

// Upload is an incoming preset file.
type Upload struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// CreateInput carries everything needed to publish a preset.
type CreateInput struct {
	Name        string
	Description *string
	Source      *string
	IsPublic    bool
	TagIDs      []string
	AuthorID    *string
	File        *Upload
}

// UpdateInput fully replaces a preset's metadata and file. TagIDs are only
// applied when ReplaceTags is set.
type UpdateInput struct {
	Name        string
	Description *string
	Source      *string
	IsPublic    bool
	TagIDs      []string
	ReplaceTags bool
	File        *Upload
}

// Store defines the persistence operations required for preset workflows.
type Store interface {
	CreatePreset(ctx context.Context, p store.NewPreset) (store.Preset, error)
	PresetForOwner(ctx context.Context, slug, authorID string) (store.Preset, error)
	UpdatePreset(ctx context.Context, id string, up store.PresetUpdate) (store.Preset, error)
	DeletePreset(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, slug string) (string, error)
	RecordStorageOrphan(ctx context.Context, storageKey string) error
}

// ObjectStorage is the subset of the storage backend the lifecycle needs.
type ObjectStorage interface {
	Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	SignedDownloadURL(ctx context.Context, key, downloadFilename string) (string, error)
}

// Service describes the preset lifecycle operations used by HTTP handlers.
type Service interface {
	Create(ctx context.Context, in CreateInput) (store.Preset, error)
	Update(ctx context.Context, slug, authorID string, in UpdateInput) (store.Preset, error)
	Delete(ctx context.Context, slug, authorID string) error
	DownloadURL(ctx context.Context, slug string) (string, error)
}

type service struct {
	store   Store
	storage ObjectStorage
}

// New constructs a preset lifecycle Service.
func New(st Store, objects ObjectStorage) Service {
	return &service{store: st, storage: objects}
}

// Create uploads the file first and only then persists metadata, so a
// failed upload never leaves a catalog entry pointing at nothing.
func (s *service) Create(ctx context.Context, in CreateInput) (store.Preset, error) {
	if err := ctx.Err(); err != nil {
		return store.Preset{}, err
	}
	if in.File == nil {
		return store.Preset{}, ErrFileRequired
	}

	key, err := s.storage.Upload(ctx, in.File.Body, in.File.Filename, in.File.ContentType)
	if err != nil {
		return store.Preset{}, err
	}

	p, err := s.store.CreatePreset(ctx, store.NewPreset{
		Name:        in.Name,
		Description: in.Description,
		Source:      in.Source,
		StorageKey:  key,
		FileSize:    in.File.Size,
		IsPublic:    in.IsPublic,
		TagIDs:      in.TagIDs,
		AuthorID:    in.AuthorID,
	})
	if err != nil {
		// Metadata never landed; reclaim the uploaded object.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			_ = s.store.RecordStorageOrphan(ctx, key)
		}
		return store.Preset{}, err
	}

	return p, nil
}

// Update replaces the preset's metadata and file. The new file is uploaded
// before the metadata switches over, and the old object is removed last, so
// the catalog entry always points at an object that exists. A failed cleanup
// of the old object is recorded for reconciliation rather than failing the
// edit.
func (s *service) Update(ctx context.Context, slug, authorID string, in UpdateInput) (store.Preset, error) {
	if err := ctx.Err(); err != nil {
		return store.Preset{}, err
	}

	current, err := s.store.PresetForOwner(ctx, slug, authorID)
	if err != nil {
		return store.Preset{}, err
	}
	if in.File == nil {
		return store.Preset{}, ErrFileRequired
	}

	newKey, err := s.storage.Upload(ctx, in.File.Body, in.File.Filename, in.File.ContentType)
	if err != nil {
		return store.Preset{}, err
	}

	updated, err := s.store.UpdatePreset(ctx, current.ID, store.PresetUpdate{
		Name:        in.Name,
		Description: in.Description,
		Source:      in.Source,
		IsPublic:    in.IsPublic,
		StorageKey:  newKey,
		FileSize:    in.File.Size,
		TagIDs:      in.TagIDs,
		ReplaceTags: in.ReplaceTags,
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, newKey); delErr != nil {
			_ = s.store.RecordStorageOrphan(ctx, newKey)
		}
		return store.Preset{}, err
	}

	if current.StorageKey != newKey {
		if err := s.storage.Delete(ctx, current.StorageKey); err != nil {
			_ = s.store.RecordStorageOrphan(ctx, current.StorageKey)
		}
	}

	return updated, nil
}

// Delete removes the stored object first and aborts if that fails, so a
// deleted catalog entry never leaves an unreachable file behind.
func (s *service) Delete(ctx context.Context, slug, authorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := s.store.PresetForOwner(ctx, slug, authorID)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, current.StorageKey); err != nil {
		return err
	}

	return s.store.DeletePreset(ctx, current.ID)
}

// DownloadURL counts the download and returns a short-lived signed URL for
// the preset's file, served under a friendly "<slug>.thrl6p" filename.
func (s *service) DownloadURL(ctx context.Context, slug string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := s.store.IncrementDownloads(ctx, slug)
	if err != nil {
		return "", err
	}

	return s.storage.SignedDownloadURL(ctx, key, slug+".thrl6p")
}
