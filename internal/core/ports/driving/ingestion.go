package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestionService turns stored documents into indexed passages.
type IngestionService interface {
	// Ingest extracts, chunks, persists, embeds and indexes a document.
	// Errors wrap domain.ErrExtractionFailed or domain.ErrInvalidChunkingConfig
	// when those steps fail; no corpus entry exists afterwards.
	Ingest(ctx context.Context, documentID string) (*domain.IngestResult, error)

	// Restore rebuilds the corpus entry of a processed document from its
	// persisted passages. The file is not re-extracted.
	Restore(ctx context.Context, documentID string) error

	// RestoreAll restores every processed document and returns how many were restored.
	RestoreAll(ctx context.Context) (int, error)
}
