package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Ingestion Errors.

	// ErrUnsupportedFormat indicates the file type has no text extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidChunkingConfig indicates a window size and overlap that cannot
	// make forward progress (overlap >= size).
	ErrInvalidChunkingConfig = errors.New("invalid chunking config")

	// ErrExtractionFailed indicates text could not be extracted from a document.
	// It usually wraps a more specific cause such as ErrUnsupportedFormat.
	ErrExtractionFailed = errors.New("extraction failed")

	// Retrieval Errors.

	// ErrDocumentNotIndexed indicates the document has no corpus entry.
	// It was never processed, processing failed, or it was evicted.
	ErrDocumentNotIndexed = errors.New("document not indexed")

	// ErrEmptyCorpus indicates the document is indexed but has no passages.
	ErrEmptyCorpus = errors.New("document has no passages")

	// Generation Errors.

	// ErrGenerationUnavailable indicates the answer generator could not be reached.
	// The caller may retry later; nothing is retried internally.
	ErrGenerationUnavailable = errors.New("answer generator unavailable")

	// ErrGenerationError indicates the answer generator returned an unusable response.
	ErrGenerationError = errors.New("answer generation failed")
)
