package mcp

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	passages  []domain.Passage
	result    *domain.IngestResult
	err       error

	uploaded    driving.UploadRequest
	uploadedRaw string
	deleted     string
}

func (m *mockDocumentService) Upload(
	_ context.Context, req driving.UploadRequest,
) (*domain.Document, *domain.IngestResult, error) {
	m.uploaded = req
	if req.Content != nil {
		data, _ := io.ReadAll(req.Content)
		m.uploadedRaw = string(data)
	}
	if m.err != nil {
		return nil, nil, m.err
	}
	doc := &domain.Document{ID: "doc-new", Title: req.Filename, Status: domain.StatusProcessed}
	if req.Title != "" {
		doc.Title = req.Title
	}
	return doc, m.result, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Passages(_ context.Context, _ string) ([]domain.Passage, error) {
	return m.passages, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

// mockQuestionService records calls through testify's mock.
type mockQuestionService struct {
	mock.Mock
}

func (m *mockQuestionService) Ask(_ context.Context, docID, question, sessionID string) (*domain.Answer, error) {
	args := m.Called(docID, question, sessionID)
	answer, _ := args.Get(0).(*domain.Answer)
	return answer, args.Error(1)
}

func (m *mockQuestionService) History(_ context.Context, docID string) ([]domain.ChatSession, error) {
	args := m.Called(docID)
	sessions, _ := args.Get(0).([]domain.ChatSession)
	return sessions, args.Error(1)
}

// mockIngestionService records restores.
type mockIngestionService struct {
	mock.Mock
}

func (m *mockIngestionService) Ingest(_ context.Context, docID string) (*domain.IngestResult, error) {
	args := m.Called(docID)
	result, _ := args.Get(0).(*domain.IngestResult)
	return result, args.Error(1)
}

func (m *mockIngestionService) Restore(_ context.Context, docID string) error {
	return m.Called(docID).Error(0)
}

func (m *mockIngestionService) RestoreAll(_ context.Context) (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

var (
	_ driving.DocumentService  = (*mockDocumentService)(nil)
	_ driving.QuestionService  = (*mockQuestionService)(nil)
	_ driving.IngestionService = (*mockIngestionService)(nil)
)
