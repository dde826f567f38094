package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

func TestIngest_TextDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.createDocument("doc-1", "notes.txt", "one two three four five six")

	result, err := env.ingestion.Ingest(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusProcessed, result.Status)
	assert.Equal(t, 3, result.PassageCount)
	assert.Equal(t, "txt", result.FileType)
	assert.Equal(t, int64(len("one two three four five six")), result.Size)
	assert.Nil(t, result.Pages)

	stored, err := env.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, stored.Status)
	assert.Equal(t, result.Size, stored.Size)

	passages, err := env.store.ListPassages(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, passages, 3)
	assert.Equal(t, "one two three four", passages[0].Content)
	assert.Equal(t, "three four five six", passages[1].Content)
	assert.Equal(t, "five six", passages[2].Content)
	for i, p := range passages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, domain.DefaultPageNumber, p.PageNumber)
	}

	assert.True(t, env.retrieval.Indexed(doc.ID))
}

func TestIngest_PDFPages(t *testing.T) {
	extractor := &textExtractor{
		text:  "page one\fpage two\fpage three",
		types: map[string]bool{"pdf": true},
	}
	env := newTestEnv(t, withExtractor(extractor))
	doc := env.createDocument("doc-1", "paper.pdf", "%PDF-1.4 stand-in")

	result, err := env.ingestion.Ingest(context.Background(), doc.ID)
	require.NoError(t, err)

	require.NotNil(t, result.Pages)
	assert.Equal(t, 3, *result.Pages)
	assert.Equal(t, "pdf", result.FileType)
}

func TestIngest_UnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.createDocument("doc-1", "image.png", "not text")

	_, err := env.ingestion.Ingest(ctx, doc.ID)

	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.False(t, env.retrieval.Indexed(doc.ID))

	stored, err := env.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestIngest_ExtractorError(t *testing.T) {
	extractor := &textExtractor{err: errors.New("corrupt"), types: map[string]bool{"txt": true}}
	env := newTestEnv(t, withExtractor(extractor))
	doc := env.createDocument("doc-1", "notes.txt", "x")

	_, err := env.ingestion.Ingest(context.Background(), doc.ID)

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.ErrorContains(t, err, "corrupt")
}

func TestIngest_EmptyFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.createDocument("doc-1", "empty.txt", "")

	result, err := env.ingestion.Ingest(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, result.PassageCount)
	assert.True(t, env.retrieval.Indexed(doc.ID))

	_, err = env.retrieval.Query(ctx, doc.ID, "anything")
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestIngest_ChunkerRejectsConfig(t *testing.T) {
	env := newTestEnv(t, withChunker(failingChunker{}))
	ctx := context.Background()
	doc := env.createDocument("doc-1", "notes.txt", "some words")

	_, err := env.ingestion.Ingest(ctx, doc.ID)

	require.ErrorIs(t, err, domain.ErrInvalidChunkingConfig)
	stored, err := env.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestIngest_EmbeddingUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.err = domain.ErrEmbeddingUnavailable
	ctx := context.Background()
	doc := env.createDocument("doc-1", "notes.txt", "some words")

	_, err := env.ingestion.Ingest(ctx, doc.ID)

	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.False(t, env.retrieval.Indexed(doc.ID))
}

func TestIngest_MissingDocument(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ingestion.Ingest(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_ReingestReplacesPassages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.createDocument("doc-1", "notes.txt", "one two three four five six")

	_, err := env.ingestion.Ingest(ctx, doc.ID)
	require.NoError(t, err)
	_, err = env.ingestion.Ingest(ctx, doc.ID)
	require.NoError(t, err)

	passages, err := env.store.ListPassages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, passages, 3)
	assert.Equal(t, 3, env.retrieval.Stats().Passages)
}

func TestRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three four five six")

	env.retrieval.Evict(doc.ID)
	require.False(t, env.retrieval.Indexed(doc.ID))

	require.NoError(t, env.ingestion.Restore(ctx, doc.ID))

	assert.True(t, env.retrieval.Indexed(doc.ID))
	result, err := env.retrieval.Query(ctx, doc.ID, "five six")
	require.NoError(t, err)
	assert.Contains(t, result.MatchedIndices(), 2)
}

func TestRestore_NotProcessed(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument("doc-1", "notes.txt", "words")

	err := env.ingestion.Restore(context.Background(), doc.ID)

	assert.ErrorIs(t, err, domain.ErrDocumentNotIndexed)
}

func TestRestoreAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.upload("a.txt", "alpha beta gamma")
	second := env.upload("b.txt", "delta epsilon")
	env.createDocument("pending", "c.txt", "never ingested")

	env.retrieval.Evict(first.ID)
	env.retrieval.Evict(second.ID)

	restored, err := env.ingestion.RestoreAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, restored)
	assert.True(t, env.retrieval.Indexed(first.ID))
	assert.True(t, env.retrieval.Indexed(second.ID))
	assert.False(t, env.retrieval.Indexed("pending"))
}

func TestRestoreAll_CollectsFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("a.txt", "alpha beta gamma")
	env.retrieval.Evict(doc.ID)

	env.embedder.err = domain.ErrEmbeddingUnavailable
	restored, err := env.ingestion.RestoreAll(ctx)

	assert.Zero(t, restored)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

// processedUpdateFails rejects the final status update of an ingest.
type processedUpdateFails struct {
	*memory.Store
}

func (s processedUpdateFails) UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) error {
	if update.Status == domain.StatusProcessed {
		return errors.New("disk full")
	}
	return s.Store.UpdateDocument(ctx, id, update)
}

func TestIngest_UpdateFailureEvictsEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.createDocument("doc-1", "notes.txt", "one two three four five six")

	ch, err := chunker.New(chunker.WithChunkSize(4), chunker.WithOverlap(2))
	require.NoError(t, err)
	ingestion := NewIngestionService(env.files, processedUpdateFails{env.store},
		normalisers.NewRegistry(plaintext.New()), ch, env.retrieval)

	result, err := ingestion.Ingest(ctx, doc.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "update document: disk full")
	assert.Nil(t, result)
	assert.False(t, env.retrieval.Indexed(doc.ID))
	assert.Equal(t, 0, env.index.Len())

	stored, err := env.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestIngest_PDFBlankPageCounted(t *testing.T) {
	extractor := &textExtractor{
		text:  "intro\f\n\f\nsummary",
		types: map[string]bool{"pdf": true},
	}
	env := newTestEnv(t, withExtractor(extractor))
	doc := env.createDocument("doc-1", "scan.pdf", "%PDF-1.4 stand-in")

	result, err := env.ingestion.Ingest(context.Background(), doc.ID)
	require.NoError(t, err)

	require.NotNil(t, result.Pages)
	assert.Equal(t, 3, *result.Pages)
	assert.Equal(t, 1, result.PassageCount)
}
