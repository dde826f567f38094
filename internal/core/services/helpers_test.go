package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/filestore/local"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// mapEmbedder returns fixed vectors for known texts. Unknown texts embed to
// {len(text), 100, 0...} so they sit far away from the fixed vectors.
type mapEmbedder struct {
	dims    int
	vectors map[string][]float32
	err     error
	calls   atomic.Int32
}

func newMapEmbedder(dims int, vectors map[string][]float32) *mapEmbedder {
	if vectors == nil {
		vectors = make(map[string][]float32)
	}
	return &mapEmbedder{dims: dims, vectors: vectors}
}

func (m *mapEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	v := make([]float32, m.dims)
	v[0] = float32(len(text))
	if m.dims > 1 {
		v[1] = 100
	}
	return v
}

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mapEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mapEmbedder) Dimensions() int { return m.dims }
func (m *mapEmbedder) ModelName() string { return "map" }
func (m *mapEmbedder) Ping(_ context.Context) error { return nil }
func (m *mapEmbedder) Close() error { return nil }

var _ driven.EmbeddingService = (*mapEmbedder)(nil)

// stubGenerator records what it was asked.
type stubGenerator struct {
	mu       sync.Mutex
	answer   string
	err      error
	block    bool
	passages []string
	question []string
}

func (g *stubGenerator) Generate(ctx context.Context, passages, question string) (string, error) {
	g.mu.Lock()
	g.passages = append(g.passages, passages)
	g.question = append(g.question, question)
	g.mu.Unlock()

	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *stubGenerator) ModelName() string { return "stub" }
func (g *stubGenerator) Ping(_ context.Context) error { return nil }
func (g *stubGenerator) Close() error { return nil }

var _ driven.AnswerGenerator = (*stubGenerator)(nil)

// textExtractor returns canned text for any supported type.
type textExtractor struct {
	text  string
	err   error
	types map[string]bool
}

func (e *textExtractor) Extract(_ context.Context, _, fileType string) (string, error) {
	if !e.types[fileType] {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, fileType)
	}
	return e.text, e.err
}

func (e *textExtractor) Supports(fileType string) bool { return e.types[fileType] }

// failingChunker always rejects its configuration.
type failingChunker struct{}

func (failingChunker) Chunk(string) ([]string, error) {
	return nil, domain.ErrInvalidChunkingConfig
}

// testEnv wires the services over in-memory and temp-dir adapters.
type testEnv struct {
	t         *testing.T
	dir       string
	store     *memory.Store
	files     *local.Store
	index     *flat.Index
	embedder  *mapEmbedder
	generator *stubGenerator
	retrieval *RetrievalService
	ingestion *IngestionService
	documents *DocumentService
	questions *QuestionService
}

type envOption func(*envConfig)

type envConfig struct {
	extractor driven.TextExtractor
	chunker   driven.Chunker
	embedder  *mapEmbedder
	generator *stubGenerator
	noGen     bool
}

func withExtractor(e driven.TextExtractor) envOption { return func(c *envConfig) { c.extractor = e } }
func withChunker(ch driven.Chunker) envOption { return func(c *envConfig) { c.chunker = ch } }
func withEmbedder(e *mapEmbedder) envOption { return func(c *envConfig) { c.embedder = e } }
func withoutGenerator() envOption { return func(c *envConfig) { c.noGen = true } }

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.extractor == nil {
		cfg.extractor = normalisers.NewRegistry(plaintext.New())
	}
	if cfg.chunker == nil {
		ch, err := chunker.New(chunker.WithChunkSize(4), chunker.WithOverlap(2))
		require.NoError(t, err)
		cfg.chunker = ch
	}
	if cfg.embedder == nil {
		cfg.embedder = newMapEmbedder(3, nil)
	}
	if cfg.generator == nil {
		cfg.generator = &stubGenerator{answer: "generated answer"}
	}

	dir := t.TempDir()
	files, err := local.New(filepath.Join(dir, "data"))
	require.NoError(t, err)
	index, err := flat.New(cfg.embedder.Dimensions())
	require.NoError(t, err)

	env := &testEnv{
		t:         t,
		dir:       dir,
		store:     memory.NewStore(),
		files:     files,
		index:     index,
		embedder:  cfg.embedder,
		generator: cfg.generator,
	}
	env.retrieval = NewRetrievalService(index, cfg.embedder, domain.DefaultRetrievalSettings())
	env.ingestion = NewIngestionService(files, env.store, cfg.extractor, cfg.chunker, env.retrieval)
	env.documents = NewDocumentService(files, env.store, cfg.extractor, env.ingestion, env.retrieval)

	var generator driven.AnswerGenerator = cfg.generator
	if cfg.noGen {
		generator = nil
	}
	env.questions = NewQuestionService(env.store, env.store, env.retrieval, generator)
	return env
}

// upload stores text as a .txt document through the document service.
func (e *testEnv) upload(name, text string) *domain.Document {
	e.t.Helper()
	doc, _, err := e.documents.Upload(context.Background(), uploadRequest(name, text))
	require.NoError(e.t, err)
	return doc
}

// createDocument writes a file and a pending record without ingesting it.
func (e *testEnv) createDocument(id, name, content string) *domain.Document {
	e.t.Helper()
	path, err := e.files.Save(context.Background(), id, name, strings.NewReader(content))
	require.NoError(e.t, err)
	doc := &domain.Document{
		ID:       id,
		Title:    name,
		Path:     path,
		FileType: domain.FileTypeOf(name),
		Status:   domain.StatusPending,
	}
	require.NoError(e.t, e.store.CreateDocument(context.Background(), doc))
	return doc
}

func uploadRequest(name, text string) driving.UploadRequest {
	return driving.UploadRequest{Filename: name, Content: strings.NewReader(text)}
}

func (e *testEnv) fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
