package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.MetadataStore = (*Store)(nil)
	_ driven.ChatStore     = (*Store)(nil)
)

// Store is an in-memory implementation of driven.MetadataStore and
// driven.ChatStore. Deleting a document cascades to its passages and chat
// history, matching the SQLite store.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	passages  map[string][]domain.Passage
	sessions  []domain.ChatSession
	messages  map[string][]domain.ChatMessage
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.Document),
		passages:  make(map[string][]domain.Passage),
		messages:  make(map[string][]domain.ChatMessage),
	}
}

// CreateDocument stores a new document record.
func (s *Store) CreateDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
	}
	d := *doc
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	s.documents[doc.ID] = d
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// UpdateDocument writes back the fields derived by ingestion.
func (s *Store) UpdateDocument(_ context.Context, id string, update domain.DocumentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = update.Status
	doc.Size = update.Size
	doc.FileType = update.FileType
	doc.Pages = update.Pages
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document, its passages and its chat history.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.passages, id)
	s.sessions = slices.DeleteFunc(s.sessions, func(session domain.ChatSession) bool {
		if session.DocumentID != id {
			return false
		}
		delete(s.messages, session.ID)
		return true
	})
	return nil
}

// CreatePassage stores one passage of a document.
func (s *Store) CreatePassage(_ context.Context, documentID string, index, pageNumber int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	s.passages[documentID] = append(s.passages[documentID], domain.Passage{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Index:      index,
		PageNumber: pageNumber,
		Content:    content,
	})
	return nil
}

// DeletePassages removes every passage of a document.
func (s *Store) DeletePassages(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.passages, documentID)
	return nil
}

// ListPassages returns a document's passages ordered by index.
func (s *Store) ListPassages(_ context.Context, documentID string) ([]domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := slices.Clone(s.passages[documentID])
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})
	return result, nil
}

// CreateSession opens a new session for a document.
func (s *Store) CreateSession(_ context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[session.DocumentID]; !ok {
		return domain.ErrNotFound
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	stored := *session
	stored.Messages = nil
	s.sessions = append(s.sessions, stored)
	return nil
}

// GetSession retrieves a session without its messages.
func (s *Store) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.ID == id {
			return &session, nil
		}
	}
	return nil, domain.ErrNotFound
}

// AddMessage records one exchange in a session.
func (s *Store) AddMessage(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := slices.ContainsFunc(s.sessions, func(session domain.ChatSession) bool {
		return session.ID == msg.SessionID
	})
	if !found {
		return domain.ErrNotFound
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	stored := *msg
	stored.MatchedIndices = slices.Clone(msg.MatchedIndices)
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], stored)
	return nil
}

// ListSessions returns a document's sessions newest first,
// each with its messages oldest first.
func (s *Store) ListSessions(_ context.Context, documentID string) ([]domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ChatSession
	for i := len(s.sessions) - 1; i >= 0; i-- {
		session := s.sessions[i]
		if session.DocumentID != documentID {
			continue
		}
		session.Messages = slices.Clone(s.messages[session.ID])
		sort.SliceStable(session.Messages, func(a, b int) bool {
			return session.Messages[a].CreatedAt.Before(session.Messages[b].CreatedAt)
		})
		result = append(result, session)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
