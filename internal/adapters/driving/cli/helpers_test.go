package cli

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var testCreatedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// MockDocumentService keeps documents in memory.
type MockDocumentService struct {
	mu        sync.Mutex
	docs      map[string]domain.Document
	passages  map[string][]domain.Passage
	uploads   []driving.UploadRequest
	uploaded  []string
	deleted   []string
	uploadErr error
}

func newMockDocumentService(docs ...domain.Document) *MockDocumentService {
	m := &MockDocumentService{
		docs:     make(map[string]domain.Document),
		passages: make(map[string][]domain.Passage),
	}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *MockDocumentService) Upload(
	_ context.Context, req driving.UploadRequest,
) (*domain.Document, *domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, nil, m.uploadErr
	}
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, nil, err
	}
	m.uploads = append(m.uploads, req)
	m.uploaded = append(m.uploaded, string(data))

	title := req.Title
	if title == "" {
		title = req.Filename
	}
	doc := domain.Document{
		ID:        "doc-new",
		Title:     title,
		FileType:  domain.FileTypeOf(req.Filename),
		Size:      int64(len(data)),
		Status:    domain.StatusProcessed,
		CreatedAt: testCreatedAt,
	}
	m.docs[doc.ID] = doc
	return &doc, &domain.IngestResult{
		DocumentID:   doc.ID,
		Status:       doc.Status,
		PassageCount: 3,
		Size:         doc.Size,
		FileType:     doc.FileType,
	}, nil
}

func (m *MockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (m *MockDocumentService) Passages(_ context.Context, id string) ([]domain.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return m.passages[id], nil
}

func (m *MockDocumentService) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// askCall records one Ask invocation.
type askCall struct {
	documentID string
	question   string
	sessionID  string
}

// MockQuestionService answers every question with a fixed answer.
type MockQuestionService struct {
	mu       sync.Mutex
	answer   domain.Answer
	sessions []domain.ChatSession
	asks     []askCall
	err      error
}

func (m *MockQuestionService) Ask(
	_ context.Context, documentID, question, sessionID string,
) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asks = append(m.asks, askCall{documentID, question, sessionID})
	if m.err != nil {
		return nil, m.err
	}
	answer := m.answer
	return &answer, nil
}

func (m *MockQuestionService) History(_ context.Context, _ string) ([]domain.ChatSession, error) {
	return m.sessions, nil
}

// MockSettingsService records Set calls and returns fixed values.
type MockSettingsService struct {
	values      []driving.SettingValue
	sets        [][2]string
	setErr      error
	validateErr error
	embedding   []string
	llm         []string
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	return &s, nil
}

func (m *MockSettingsService) Save(*domain.AppSettings) error { return nil }

func (m *MockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets = append(m.sets, [2]string{key, value})
	return nil
}

func (m *MockSettingsService) Values() ([]driving.SettingValue, error) { return m.values, nil }

func (m *MockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(p), model, apiKey}
	return nil
}

func (m *MockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(p), model, apiKey}
	return nil
}

func (m *MockSettingsService) Validate() error { return m.validateErr }

func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *MockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *MockSettingsService) ValidateLLMConfig() error { return nil }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	documents *MockDocumentService
	questions *MockQuestionService
	settings  *MockSettingsService
}

// setupTestServices installs mock services and returns a cleanup function
// restoring the previous package state.
func setupTestServices() (*testServices, func()) {
	prevSettings, prevDocuments := settingsService, documentService
	prevQuestions, prevIngestion := questionService, ingestionService
	prevRetrieval, prevLoader := retrievalService, loader
	prevInteractive := interactive

	ts := &testServices{
		documents: newMockDocumentService(
			domain.Document{
				ID: "doc-1", Title: "Handbook", FileType: "txt", Size: 2048,
				Status: domain.StatusProcessed, CreatedAt: testCreatedAt, UpdatedAt: testCreatedAt,
			},
			domain.Document{
				ID: "doc-2", Title: "Broken scan", FileType: "pdf",
				Status: domain.StatusFailed, CreatedAt: testCreatedAt, UpdatedAt: testCreatedAt,
			},
		),
		questions: &MockQuestionService{
			answer: domain.Answer{
				Text:      "Employees get 25 days of leave.",
				SessionID: "session-1",
				Retrieval: domain.Retrieval{
					DocumentID: "doc-1",
					Matches:    []domain.Match{{Index: 0, Content: "25 days of leave"}, {Index: 4, Content: "carry over"}},
				},
			},
		},
		settings: &MockSettingsService{},
	}
	ts.documents.passages["doc-1"] = []domain.Passage{
		{ID: "p-0", DocumentID: "doc-1", Index: 0, PageNumber: 1, Content: "25 days of leave"},
		{ID: "p-1", DocumentID: "doc-1", Index: 1, PageNumber: 1, Content: "carry over"},
	}

	settingsService = ts.settings
	documentService = ts.documents
	questionService = ts.questions
	ingestionService = nil
	retrievalService = nil
	loader = nil
	interactive = func() bool { return false }

	return ts, func() {
		settingsService, documentService = prevSettings, prevDocuments
		questionService, ingestionService = prevQuestions, prevIngestion
		retrievalService, loader = prevRetrieval, prevLoader
		interactive = prevInteractive
		askSession = ""
		uploadTitle = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}
