package repository

import (
	"context"

	"documind/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
//
// Every read/update/delete is scoped by owner id: a row belonging to another
// owner behaves exactly like a missing row (sql.ErrNoRows), so existence
// never leaks across owners.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns the document with the given id owned by ownerID.
	FindByID(ctx context.Context, id, ownerID string) (*model.Document, error)

	// List returns the owner's documents matching the filter,
	// ordered by updated_at descending.
	List(ctx context.Context, ownerID string, f Filter) ([]model.Document, error)

	// Update applies the non-nil patch fields to the document and refreshes
	// updated_at. Fields absent from the patch are untouched.
	Update(ctx context.Context, id, ownerID string, p Patch) (*model.Document, error)

	// Delete removes the document. Returns sql.ErrNoRows when no owned row matched.
	Delete(ctx context.Context, id, ownerID string) error
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status string // exact status match
	Search string // case-insensitive substring match on title
}

// Patch holds partial-update fields. Nil means "leave unchanged";
// a non-nil Tags fully replaces the stored tag set.
type Patch struct {
	Title    *string
	Content  *string
	Status   *model.DocumentStatus
	Tags     *[]string
	Analysis *string
}
