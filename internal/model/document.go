package model

import "time"

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "draft"
	StatusFinal    DocumentStatus = "final"
	StatusArchived DocumentStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusFinal, StatusArchived:
		return true
	}
	return false
}

// Document represents a user-owned document record.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// A document always has retrievable content: either inline Content, a stored
// file referenced by StoragePath, or both. UserID is set at creation and
// never changes.
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	StoragePath string         `json:"-"`
	FileType    string         `json:"file_type,omitempty"`
	FileSize    int64          `json:"file_size,omitempty"`
	Status      DocumentStatus `json:"status"`
	Tags        []string       `json:"tags"`
	Analysis    string         `json:"analysis,omitempty"`
	UserID      string         `json:"user_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// HasFile reports whether the document has an associated stored file.
func (d *Document) HasFile() bool {
	return d.StoragePath != ""
}
