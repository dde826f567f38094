package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// FileStore keeps the bytes of uploaded documents.
type FileStore interface {
	// Save writes an upload and returns the path it was stored at.
	Save(ctx context.Context, documentID, filename string, r io.Reader) (string, error)

	// Open returns the stored path and declared file type of a document.
	Open(ctx context.Context, doc *domain.Document) (path, fileType string, err error)

	// Remove deletes a document's stored file. Missing files are not an error.
	Remove(ctx context.Context, doc *domain.Document) error
}
