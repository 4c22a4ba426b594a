package storage

import (
	"context"

	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/search"
)

// DocumentRepository stores documents by identifier and answers filtered searches.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// Save upserts a document.
	// Assigns a new unique ID if the document has none.
	// Sets Created to the current time if it is zero or in the future;
	// a past Created is kept.
	// Replaces any document already stored under the same ID.
	// Returns a copy of the stored document.
	Save(ctx context.Context, doc *core.Document) (*core.Document, error)

	// FindByID retrieves a document by exact ID.
	// Returns nil, nil if no document has that ID.
	FindByID(ctx context.Context, id string) (*core.Document, error)

	// Search returns every stored document matching all active criteria of req.
	// Result order is unspecified. An empty request returns every document.
	Search(ctx context.Context, req search.Request) ([]*core.Document, error)

	// Close releases the repository's resources.
	Close() error
}
