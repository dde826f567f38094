package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// corpusIndexer records a document's passages in the corpus.
// Implemented by RetrievalService.
type corpusIndexer interface {
	Index(ctx context.Context, documentID string, passages []string) error
	Evict(documentID string)
}

// pageBreak separates pages in extracted PDF text.
const pageBreak = "\f"

// IngestionService runs the extract, chunk, persist, embed, index pipeline.
type IngestionService struct {
	files     driven.FileStore
	metadata  driven.MetadataStore
	extractor driven.TextExtractor
	chunker   driven.Chunker
	corpus    corpusIndexer
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	files driven.FileStore,
	metadata driven.MetadataStore,
	extractor driven.TextExtractor,
	chunker driven.Chunker,
	corpus *RetrievalService,
) *IngestionService {
	return &IngestionService{
		files:     files,
		metadata:  metadata,
		extractor: extractor,
		chunker:   chunker,
		corpus:    corpus,
	}
}

// Ingest extracts, chunks, persists, embeds and indexes a document.
// On failure the document is left without a corpus entry and marked failed.
func (s *IngestionService) Ingest(ctx context.Context, documentID string) (*domain.IngestResult, error) {
	logger.Section("Ingestion")
	defer logger.Elapsed("ingest "+documentID, time.Now())

	doc, err := s.metadata.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	result, err := s.ingest(ctx, doc)
	if err != nil {
		s.corpus.Evict(documentID)
		update := domain.DocumentUpdate{Status: domain.StatusFailed, Size: doc.Size, FileType: doc.FileType, Pages: doc.Pages}
		if uerr := s.metadata.UpdateDocument(ctx, documentID, update); uerr != nil {
			logger.Warn("Could not mark %s failed: %v", documentID, uerr)
		}
		logger.Warn("Ingestion of %s failed: %v", documentID, err)
		return nil, err
	}

	logger.Info("Ingested %s: %d passages, %d bytes, type %s", documentID, result.PassageCount, result.Size, result.FileType)
	return result, nil
}

func (s *IngestionService) ingest(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	path, fileType, err := s.files.Open(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: open stored file: %w", domain.ErrExtractionFailed, err)
	}
	logger.Debug("File: %s (type %s)", path, fileType)

	text, err := s.extractor.Extract(ctx, path, fileType)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	logger.Debug("Extracted %d characters", len(text))

	passages, err := s.chunker.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	logger.Debug("Chunked into %d passages", len(passages))

	if err := s.persistPassages(ctx, doc.ID, passages); err != nil {
		return nil, err
	}

	if err := s.corpus.Index(ctx, doc.ID, passages); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat stored file: %w", err)
	}

	var pages *int
	if fileType == "pdf" {
		n := strings.Count(text, pageBreak) + 1
		pages = &n
	}

	update := domain.DocumentUpdate{
		Status:   domain.StatusProcessed,
		Size:     info.Size(),
		FileType: fileType,
		Pages:    pages,
	}
	if err := s.metadata.UpdateDocument(ctx, doc.ID, update); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	return &domain.IngestResult{
		DocumentID:   doc.ID,
		Status:       domain.StatusProcessed,
		PassageCount: len(passages),
		Size:         info.Size(),
		FileType:     fileType,
		Pages:        pages,
	}, nil
}

// persistPassages replaces the stored passages of a document.
func (s *IngestionService) persistPassages(ctx context.Context, documentID string, passages []string) error {
	if err := s.metadata.DeletePassages(ctx, documentID); err != nil {
		return fmt.Errorf("delete old passages: %w", err)
	}
	for i, content := range passages {
		if err := s.metadata.CreatePassage(ctx, documentID, i, domain.DefaultPageNumber, content); err != nil {
			return fmt.Errorf("save passage %d: %w", i, err)
		}
	}
	return nil
}

// Restore rebuilds the corpus entry of a processed document from its
// persisted passages.
func (s *IngestionService) Restore(ctx context.Context, documentID string) error {
	doc, err := s.metadata.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	return s.restore(ctx, doc)
}

func (s *IngestionService) restore(ctx context.Context, doc *domain.Document) error {
	if doc.Status != domain.StatusProcessed {
		return fmt.Errorf("%w: %s is %s", domain.ErrDocumentNotIndexed, doc.ID, doc.Status)
	}

	passages, err := s.metadata.ListPassages(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("list passages: %w", err)
	}

	contents := make([]string, len(passages))
	for i, p := range passages {
		contents[i] = p.Content
	}

	if err := s.corpus.Index(ctx, doc.ID, contents); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	logger.Debug("Restored %s with %d passages", doc.ID, len(contents))
	return nil
}

// RestoreAll restores every processed document and returns how many were
// restored. Failures are collected and do not stop the remaining documents.
func (s *IngestionService) RestoreAll(ctx context.Context) (int, error) {
	logger.Section("Restore")

	docs, err := s.metadata.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	var errs []error
	restored := 0
	for i := range docs {
		doc := &docs[i]
		if doc.Status != domain.StatusProcessed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return restored, err
		}
		if err := s.restore(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", doc.ID, err))
			continue
		}
		restored++
	}

	logger.Info("Restored %d of %d documents", restored, len(docs))
	return restored, errors.Join(errs...)
}
