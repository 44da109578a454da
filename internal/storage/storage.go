package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Package storage contains file storage abstractions for uploaded document
// files. Keys are namespaced per owner so that two users uploading the same
// filename never collide, and a generated unique prefix keeps concurrent
// uploads of the same name from the same user apart as well.

// ErrNotFound is returned when a file reference does not resolve to a stored object.
var ErrNotFound = errors.New("stored file not found")

// FileRef describes a stored file after a successful save.
type FileRef struct {
	Key  string
	Size int64
	Ext  string // lowercase extension without the dot, e.g. "pdf"
}

// FileInfo contains basic information about a stored file.
type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// FileStore persists uploaded document files under per-owner namespaces.
// Implementations must use streaming I/O; no local buffering of whole files.
type FileStore interface {
	// Save writes the content under the owner's namespace with a generated
	// unique name and returns the resulting reference.
	Save(ctx context.Context, ownerID, originalName string, r io.Reader, size int64) (FileRef, error)
	// Open returns the stored content as a streaming reader.
	// Returns ErrNotFound when the key does not resolve.
	Open(ctx context.Context, key string) (io.ReadCloser, FileInfo, error)
	// Remove deletes a stored file. Removing an absent file is not an error.
	Remove(ctx context.Context, key string) error
}

// ownerPrefix returns the storage namespace for one owner.
// On an object store a prefix needs no creation, so the namespace is
// idempotent and race-free by construction.
func ownerPrefix(ownerID string) string {
	return "users/" + ownerID
}

// buildKey generates a collision-safe object key for an upload:
// users/<ownerID>/<uuid>_<sanitized original name>.
func buildKey(ownerID, originalName string) string {
	return path.Join(ownerPrefix(ownerID), uuid.NewString()+"_"+sanitizeFilename(originalName))
}

// fileExt extracts the lowercase extension without the dot ("Report.PDF" -> "pdf").
func fileExt(name string) string {
	ext := path.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// sanitizeFilename strips path separators and control characters from a
// client-supplied filename so it is safe to embed in an object key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	return out
}
