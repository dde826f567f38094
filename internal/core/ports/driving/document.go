package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Upload stores a new document and ingests it synchronously.
	// When ingestion fails the record, its passages and the stored file are
	// removed again and the ingestion error is returned.
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, *domain.IngestResult, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Passages returns a document's passages ordered by index.
	Passages(ctx context.Context, documentID string) ([]domain.Passage, error)

	// Delete removes the document, its passages, its stored file and its
	// corpus entry.
	Delete(ctx context.Context, documentID string) error
}

// UploadRequest describes a file to upload.
type UploadRequest struct {
	// Filename is the original name; its extension selects the extractor.
	Filename string

	// Title defaults to Filename when empty.
	Title string

	// Content is the file body.
	Content io.Reader
}
