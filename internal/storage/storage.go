// Package storage abstracts the object store holding preset files. The
// catalog only ever sees opaque keys; bytes live behind this interface.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrStorageFailure marks any failed call against the backing object store.
// Callers branch on it to distinguish storage outages from domain errors.
var ErrStorageFailure = errors.New("object storage failure")

// ObjectStorage stores preset files and hands out short-lived download links.
// All three calls cross the network and may fail; none are retried here.
type ObjectStorage interface {
	// Upload stores the given content and returns the opaque key referencing it.
	Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error)
	// Delete removes the object referenced by key.
	Delete(ctx context.Context, key string) error
	// SignedDownloadURL returns a time-bounded URL serving the object as an
	// attachment named downloadFilename.
	SignedDownloadURL(ctx context.Context, key, downloadFilename string) (string, error)
}
