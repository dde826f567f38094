package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// MetadataStore persists documents and their passages.
// Backed by SQLite, with an in-memory implementation for tests.
type MetadataStore interface {
	// CreateDocument stores a new document record.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// UpdateDocument writes back the fields derived by ingestion.
	UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) error

	// DeleteDocument removes a document, its passages and its chat history.
	DeleteDocument(ctx context.Context, id string) error

	// CreatePassage stores one passage of a document.
	CreatePassage(ctx context.Context, documentID string, index, pageNumber int, content string) error

	// DeletePassages removes every passage of a document.
	DeletePassages(ctx context.Context, documentID string) error

	// ListPassages returns a document's passages ordered by index.
	ListPassages(ctx context.Context, documentID string) ([]domain.Passage, error)
}
