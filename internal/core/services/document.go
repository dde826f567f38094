package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages uploaded documents.
type DocumentService struct {
	files     driven.FileStore
	metadata  driven.MetadataStore
	extractor driven.TextExtractor
	ingestion driving.IngestionService
	retrieval driving.RetrievalService
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	files driven.FileStore,
	metadata driven.MetadataStore,
	extractor driven.TextExtractor,
	ingestion driving.IngestionService,
	retrieval driving.RetrievalService,
) *DocumentService {
	return &DocumentService{
		files:     files,
		metadata:  metadata,
		extractor: extractor,
		ingestion: ingestion,
		retrieval: retrieval,
	}
}

// Upload stores a new document and ingests it synchronously.
func (s *DocumentService) Upload(
	ctx context.Context, req driving.UploadRequest,
) (*domain.Document, *domain.IngestResult, error) {
	filename := strings.TrimSpace(req.Filename)
	if filename == "" || req.Content == nil {
		return nil, nil, fmt.Errorf("%w: a file is required", domain.ErrInvalidInput)
	}

	fileType := domain.FileTypeOf(filename)
	if !s.extractor.Supports(fileType) {
		return nil, nil, fmt.Errorf("%w: %w: %q", domain.ErrExtractionFailed, domain.ErrUnsupportedFormat, fileType)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = filename
	}

	id := uuid.New().String()
	path, err := s.files.Save(ctx, id, filename, req.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("save file: %w", err)
	}

	now := time.Now()
	doc := &domain.Document{
		ID:        id,
		Title:     title,
		Path:      path,
		FileType:  fileType,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.metadata.CreateDocument(ctx, doc); err != nil {
		s.removeFile(doc)
		return nil, nil, fmt.Errorf("create document: %w", err)
	}
	logger.Debug("Uploaded %s as %s", filename, id)

	result, err := s.ingestion.Ingest(ctx, id)
	if err != nil {
		s.compensate(doc)
		return nil, nil, err
	}

	stored, err := s.metadata.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get document: %w", err)
	}
	return stored, result, nil
}

// compensate removes everything a failed upload left behind.
// It uses a fresh context so cancellation of the request does not leak records.
func (s *DocumentService) compensate(doc *domain.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.retrieval.Evict(doc.ID)
	if err := s.metadata.DeletePassages(ctx, doc.ID); err != nil {
		logger.Error("cleanup passages of %s: %v", doc.ID, err)
	}
	if err := s.metadata.DeleteDocument(ctx, doc.ID); err != nil {
		logger.Error("cleanup document %s: %v", doc.ID, err)
	}
	s.removeFile(doc)
}

func (s *DocumentService) removeFile(doc *domain.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.files.Remove(ctx, doc); err != nil {
		logger.Error("cleanup file of %s: %v", doc.ID, err)
	}
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.metadata.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.metadata.GetDocument(ctx, documentID)
}

// Passages returns a document's passages ordered by index.
func (s *DocumentService) Passages(ctx context.Context, documentID string) ([]domain.Passage, error) {
	if _, err := s.metadata.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.metadata.ListPassages(ctx, documentID)
}

// Delete removes the document, its passages, its stored file and its corpus entry.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.metadata.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	s.retrieval.Evict(documentID)

	if err := s.metadata.DeletePassages(ctx, documentID); err != nil {
		return fmt.Errorf("delete passages: %w", err)
	}
	if err := s.metadata.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.files.Remove(ctx, doc); err != nil {
		return fmt.Errorf("remove file: %w", err)
	}

	logger.Info("Deleted document %s", documentID)
	return nil
}
