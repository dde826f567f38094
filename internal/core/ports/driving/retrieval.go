package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// RetrievalService answers "which passages of this document are relevant".
type RetrievalService interface {
	// Query embeds the question and returns the context for it.
	// Returns domain.ErrDocumentNotIndexed or domain.ErrEmptyCorpus.
	Query(ctx context.Context, documentID, question string) (*domain.Retrieval, error)

	// Evict drops the document's corpus entry. Absent ids are ignored.
	Evict(documentID string)

	// Indexed reports whether the document has a corpus entry.
	Indexed(documentID string) bool

	// Stats reports the current size of the corpus.
	Stats() CorpusStats
}

// CorpusStats summarises what is currently indexed.
type CorpusStats struct {
	Documents int
	Passages  int
	Rows      int
}
