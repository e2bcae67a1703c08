package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"presethub/internal/slug"
)

// maxSlugAttempts bounds how many times an insert or update is retried after
// losing a slug race to a concurrent writer. The unique constraint on
// presets.slug is the authoritative guard; the probe below is optimistic.
const maxSlugAttempts = 5

// Preset models a published amp preset. StorageKey points at the binary
// object in the external store and is never serialized to clients.
type Preset struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Source      *string   `json:"source,omitempty"`
	StorageKey  string    `json:"-"`
	FileSize    int64     `json:"fileSize"`
	IsPublic    bool      `json:"isPublic"`
	Downloads   int       `json:"downloads"`
	WilsonScore float64   `json:"wilsonScore"`
	AuthorID    *string   `json:"authorId,omitempty"`
	AuthorName  *string   `json:"authorName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PresetDetail is a preset together with its tags, as served on the detail
// endpoint.
type PresetDetail struct {
	Preset
	Tags []Tag `json:"tags"`
}

// PresetSummary is the public browsing projection. Authorless presets show
// the "Guest" placeholder.
type PresetSummary struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Downloads   int       `json:"downloads"`
	WilsonScore float64   `json:"wilsonScore"`
	AuthorName  string    `json:"authorName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewPreset carries the fields persisted on creation. The storage key must
// already reference an uploaded object.
type NewPreset struct {
	Name        string
	Description *string
	Source      *string
	StorageKey  string
	FileSize    int64
	IsPublic    bool
	TagIDs      []string
	AuthorID    *string
}

// PresetUpdate fully replaces a preset's metadata. A nil TagIDs leaves the
// tag associations untouched; a non-nil slice replaces them wholesale.
type PresetUpdate struct {
	Name        string
	Description *string
	Source      *string
	IsPublic    bool
	StorageKey  string
	FileSize    int64
	TagIDs      []string
	ReplaceTags bool
}

// PresetFilter constrains the results returned by ListPresets.
type PresetFilter struct {
	Search   string
	AuthorID string
	TagIDs   []string
	SortBy   string // "downloads", "new", or "" for score order
	Page     int
	PageSize int
}

const presetColumns = `
		p.id, p.slug, p.name, p.description, p.source, p.storage_key, p.file_size,
		p.is_public, p.downloads, p.wilson_score, p.author_id, u.username,
		p.created_at, p.updated_at
	`

// CreatePreset inserts a new preset together with its tag associations,
// allocating a unique slug from the display name. Slug collisions against
// concurrent writers are resolved by retrying with the next numeric suffix.
func (s *Store) CreatePreset(ctx context.Context, p NewPreset) (Preset, error) {
	id := uuid.New().String()

	base := slug.Make(p.Name)
	if base == "" {
		// Degenerate names normalize to nothing; the preset id still gives
		// the row a stable, unique address.
		base = id
	}

	candidate, next, err := s.freeSlug(ctx, base, "", 0)
	if err != nil {
		return Preset{}, err
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		err = s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `
		INSERT INTO presets (id, slug, name, description, source, storage_key, file_size, is_public, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, candidate, p.Name, p.Description, p.Source, p.StorageKey, p.FileSize, p.IsPublic, p.AuthorID); err != nil {
				return err
			}
			return insertPresetTags(ctx, tx, id, p.TagIDs)
		})
		if err == nil {
			return s.presetByID(ctx, id)
		}
		if isUniqueViolationOn(err, "presets_slug_key") {
			candidate, next, err = s.freeSlug(ctx, base, "", next)
			if err != nil {
				return Preset{}, err
			}
			continue
		}
		return Preset{}, fmt.Errorf("insert preset: %w", err)
	}

	return Preset{}, fmt.Errorf("allocate slug for %q: retries exhausted", base)
}

// PresetBySlug returns the full preset projection, including private presets.
func (s *Store) PresetBySlug(ctx context.Context, slugVal string) (Preset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+presetColumns+`
		FROM presets p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.slug = $1
	`, slugVal)

	p, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preset{}, ErrPresetNotFound
		}
		return Preset{}, err
	}
	return p, nil
}

// PresetForOwner fetches a preset and verifies the caller owns it. Orphaned
// presets have no owner and can never pass this check.
func (s *Store) PresetForOwner(ctx context.Context, slugVal, authorID string) (Preset, error) {
	p, err := s.PresetBySlug(ctx, slugVal)
	if err != nil {
		return Preset{}, err
	}
	if p.AuthorID == nil || *p.AuthorID != authorID {
		return Preset{}, ErrForbidden
	}
	return p, nil
}

// UpdatePreset replaces the preset's metadata and storage pointer. A new slug
// is allocated only when the name changed case-insensitively; the probe then
// excludes the preset's own row, so a rename normalizing to the same base
// slug keeps the existing address.
func (s *Store) UpdatePreset(ctx context.Context, id string, up PresetUpdate) (Preset, error) {
	var oldName, oldSlug string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, slug
		FROM presets
		WHERE id = $1
	`, id).Scan(&oldName, &oldSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preset{}, ErrPresetNotFound
		}
		return Preset{}, fmt.Errorf("lookup preset: %w", err)
	}

	newSlug := oldSlug
	next := 0
	renamed := !strings.EqualFold(oldName, up.Name)
	base := slug.Make(up.Name)
	if base == "" {
		base = id
	}
	if renamed {
		if newSlug, next, err = s.freeSlug(ctx, base, id, 0); err != nil {
			return Preset{}, err
		}
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		err = s.withTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `
		UPDATE presets
		SET slug = $2, name = $3, description = $4, source = $5, is_public = $6,
			storage_key = $7, file_size = $8, updated_at = NOW()
		WHERE id = $1
	`, id, newSlug, up.Name, up.Description, up.Source, up.IsPublic, up.StorageKey, up.FileSize)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				return ErrPresetNotFound
			}

			if !up.ReplaceTags {
				return nil
			}
			if _, err := tx.ExecContext(ctx, `
		DELETE FROM preset_tags
		WHERE preset_id = $1
	`, id); err != nil {
				return fmt.Errorf("clear preset tags: %w", err)
			}
			return insertPresetTags(ctx, tx, id, up.TagIDs)
		})
		if err == nil {
			return s.presetByID(ctx, id)
		}
		if renamed && isUniqueViolationOn(err, "presets_slug_key") {
			if newSlug, next, err = s.freeSlug(ctx, base, id, next); err != nil {
				return Preset{}, err
			}
			continue
		}
		if errors.Is(err, ErrPresetNotFound) {
			return Preset{}, err
		}
		return Preset{}, fmt.Errorf("update preset: %w", err)
	}

	return Preset{}, fmt.Errorf("allocate slug for %q: retries exhausted", base)
}

// DeletePreset removes the preset row. Ratings, tag associations, favorites
// and reports go with it via foreign key cascades.
func (s *Store) DeletePreset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM presets
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPresetNotFound
	}

	return nil
}

// IncrementDownloads bumps the download counter and returns the storage key
// of the preset's file.
func (s *Store) IncrementDownloads(ctx context.Context, slugVal string) (string, error) {
	var storageKey string
	err := s.db.QueryRowContext(ctx, `
		UPDATE presets
		SET downloads = downloads + 1
		WHERE slug = $1
		RETURNING storage_key
	`, slugVal).Scan(&storageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPresetNotFound
		}
		return "", fmt.Errorf("increment downloads: %w", err)
	}
	return storageKey, nil
}

// ListPresets returns public presets matching the filter, most relevant
// first. Tag filtering matches presets carrying at least one requested tag.
func (s *Store) ListPresets(ctx context.Context, filter PresetFilter) ([]PresetSummary, error) {
	query := `
		SELECT p.slug, p.name, p.description, p.downloads, p.wilson_score,
			COALESCE(u.username, 'Guest'), p.created_at
		FROM presets p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.is_public = TRUE`

	var args []any

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (p.name LIKE $%d OR p.description LIKE $%d)", len(args), len(args))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		query += fmt.Sprintf(" AND p.author_id = $%d", len(args))
	}
	if len(filter.TagIDs) > 0 {
		placeholders := make([]string, 0, len(filter.TagIDs))
		for _, tagID := range filter.TagIDs {
			args = append(args, tagID)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM preset_tags pt WHERE pt.preset_id = p.id AND pt.tag_id IN (%s))",
			strings.Join(placeholders, ", "),
		)
	}

	switch filter.SortBy {
	case "downloads":
		query += " ORDER BY p.downloads DESC, p.id ASC"
	case "new":
		query += " ORDER BY p.created_at DESC, p.id ASC"
	default:
		query += " ORDER BY p.wilson_score DESC, p.id ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, (page-1)*pageSize)
	query += fmt.Sprintf(" OFFSET $%d", len(args))
	args = append(args, pageSize)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select presets: %w", err)
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
			return nil, fmt.Errorf("scan preset summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presets: %w", err)
	}

	return summaries, nil
}

// RecordStorageOrphan notes an object key whose deletion failed after its
// preset moved to a new key, for later reconciliation against the bucket.
func (s *Store) RecordStorageOrphan(ctx context.Context, storageKey string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO storage_orphans (storage_key)
		VALUES ($1)
		ON CONFLICT (storage_key) DO NOTHING
	`, storageKey); err != nil {
		return fmt.Errorf("record storage orphan: %w", err)
	}
	return nil
}

// freeSlug probes for the first unclaimed slug derived from base, starting at
// suffix startN (0 means the bare base slug). excludeID ignores the preset's
// own row during renames. The returned next value resumes probing after a
// lost insert race.
func (s *Store) freeSlug(ctx context.Context, base, excludeID string, startN int) (string, int, error) {
	for n := startN; ; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}

		var taken bool
		var err error
		if excludeID == "" {
			err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM presets WHERE slug = $1)
	`, candidate).Scan(&taken)
		} else {
			err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM presets WHERE slug = $1 AND id <> $2)
	`, candidate, excludeID).Scan(&taken)
		}
		if err != nil {
			return "", 0, fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, n + 1, nil
		}
	}
}

func insertPresetTags(ctx context.Context, tx *sql.Tx, presetID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO preset_tags (preset_id, tag_id)
		VALUES ($1, $2)
	`, presetID, tagID); err != nil {
			return fmt.Errorf("insert preset tag: %w", err)
		}
	}
	return nil
}

func (s *Store) presetByID(ctx context.Context, id string) (Preset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+presetColumns+`
		FROM presets p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, id)

	p, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preset{}, ErrPresetNotFound
		}
		return Preset{}, err
	}
	return p, nil
}

type presetScanner interface {
	Scan(dest ...any) error
}

func scanPreset(scanner presetScanner) (Preset, error) {
	var p Preset
	if err := scanner.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Description,
		&p.Source,
		&p.StorageKey,
		&p.FileSize,
		&p.IsPublic,
		&p.Downloads,
		&p.WilsonScore,
		&p.AuthorID,
		&p.AuthorName,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preset{}, err
		}
		return Preset{}, fmt.Errorf("scan preset: %w", err)
	}
	return p, nil
}
