package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryUploadAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	key, err := m.Upload(ctx, bytes.NewReader([]byte("preset bytes")), "tone.thrl6p", "application/octet-stream")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if !strings.HasPrefix(key, "presets/") || !strings.HasSuffix(key, "/tone.thrl6p") {
		t.Fatalf("unexpected key %q", key)
	}

	content, ok := m.Object(key)
	if !ok || string(content) != "preset bytes" {
		t.Fatalf("stored object = %q, ok = %v", content, ok)
	}

	if err := m.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty store, got %d objects", m.Len())
	}

	if err := m.Delete(ctx, key); !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure for missing key, got %v", err)
	}
}

func TestMemorySignedDownloadURL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	key, err := m.Upload(ctx, bytes.NewReader([]byte("x")), "clean.thrl6p", "application/octet-stream")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	url, err := m.SignedDownloadURL(ctx, key, "warm-clean.thrl6p")
	if err != nil {
		t.Fatalf("SignedDownloadURL error: %v", err)
	}
	if !strings.Contains(url, key) || !strings.Contains(url, "warm-clean.thrl6p") {
		t.Fatalf("unexpected url %q", url)
	}

	if _, err := m.SignedDownloadURL(ctx, "presets/missing/x", "x"); !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure for missing key, got %v", err)
	}
}

func TestUniqueKeysPerUpload(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.Upload(ctx, bytes.NewReader([]byte("a")), "same.thrl6p", "application/octet-stream")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	second, err := m.Upload(ctx, bytes.NewReader([]byte("b")), "same.thrl6p", "application/octet-stream")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct keys for repeated filenames, got %q twice", first)
	}
}
