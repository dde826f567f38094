package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := uploadRequest("report.txt", "one two three four five six")
	req.Title = "Quarterly report"
	doc, result, err := env.documents.Upload(ctx, req)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Quarterly report", doc.Title)
	assert.Equal(t, "txt", doc.FileType)
	assert.Equal(t, domain.StatusProcessed, doc.Status)
	assert.Equal(t, int64(27), doc.Size)
	assert.True(t, env.fileExists(doc.Path))

	assert.Equal(t, doc.ID, result.DocumentID)
	assert.Equal(t, 3, result.PassageCount)
	assert.True(t, env.retrieval.Indexed(doc.ID))
}

func TestUpload_TitleDefaultsToFilename(t *testing.T) {
	env := newTestEnv(t)

	doc := env.upload("notes.txt", "some words")

	assert.Equal(t, "notes.txt", doc.Title)
}

func TestUpload_InvalidRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.documents.Upload(ctx, uploadRequest("  ", "text"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = env.documents.Upload(ctx, driving.UploadRequest{Filename: "a.txt"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpload_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.documents.Upload(ctx, uploadRequest("slides.pptx", "binary"))

	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	docs, err := env.store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUpload_CompensatesOnIngestFailure(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.err = domain.ErrEmbeddingUnavailable
	ctx := context.Background()

	_, _, err := env.documents.Upload(ctx, uploadRequest("notes.txt", "one two three"))
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	docs, err := env.store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs, "no document record survives a failed upload")

	entries, err := os.ReadDir(filepath.Join(env.files.Root(), "documents"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no stored file survives a failed upload")
	assert.Zero(t, env.retrieval.Stats().Documents)
}

func TestList(t *testing.T) {
	env := newTestEnv(t)
	first := env.upload("a.txt", "alpha")
	second := env.upload("b.txt", "beta")

	docs, err := env.documents.List(context.Background())
	require.NoError(t, err)

	ids := []string{docs[0].ID, docs[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.documents.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPassages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three four five six")

	passages, err := env.documents.Passages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, passages, 3)

	_, err = env.documents.Passages(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three")
	_, err := env.questions.Ask(ctx, doc.ID, "three?", "")
	require.NoError(t, err)

	require.NoError(t, env.documents.Delete(ctx, doc.ID))

	_, err = env.documents.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, env.retrieval.Indexed(doc.ID))
	assert.False(t, env.fileExists(doc.Path))

	passages, err := env.store.ListPassages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, passages)

	_, err = env.questions.Ask(ctx, doc.ID, "three?", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.documents.Delete(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
