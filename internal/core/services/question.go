package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QuestionService implements the interface.
var _ driving.QuestionService = (*QuestionService)(nil)

// DefaultGenerationTimeout bounds one answer generator call.
const DefaultGenerationTimeout = 30 * time.Second

// QuestionService answers questions about documents and records the history.
type QuestionService struct {
	metadata  driven.MetadataStore
	chats     driven.ChatStore
	retrieval driving.RetrievalService
	generator driven.AnswerGenerator
	timeout   time.Duration
}

// NewQuestionService creates a new question service.
// The generator is optional: without one, answers are empty and callers
// show the retrieved context instead.
func NewQuestionService(
	metadata driven.MetadataStore,
	chats driven.ChatStore,
	retrieval driving.RetrievalService,
	generator driven.AnswerGenerator,
) *QuestionService {
	return &QuestionService{
		metadata:  metadata,
		chats:     chats,
		retrieval: retrieval,
		generator: generator,
		timeout:   DefaultGenerationTimeout,
	}
}

// SetTimeout overrides the generation timeout. Zero or less disables it.
func (s *QuestionService) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Ask answers question about a document and records the exchange.
func (s *QuestionService) Ask(ctx context.Context, documentID, question, sessionID string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if _, err := s.metadata.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	retrieval, err := s.retrieval.Query(ctx, documentID, question)
	if err != nil {
		return nil, err
	}

	text, err := s.generate(ctx, retrieval.Context(), question)
	if err != nil {
		return nil, err
	}

	session, err := s.session(ctx, documentID, sessionID)
	if err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		ID:             uuid.New().String(),
		SessionID:      session.ID,
		Question:       question,
		Answer:         text,
		MatchedIndices: retrieval.MatchedIndices(),
		CreatedAt:      time.Now(),
	}
	if err := s.chats.AddMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	return &domain.Answer{
		Text:      text,
		SessionID: session.ID,
		Retrieval: *retrieval,
	}, nil
}

func (s *QuestionService) generate(ctx context.Context, passages, question string) (string, error) {
	if s.generator == nil {
		logger.Debug("No answer generator configured, returning context only")
		return "", nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, passages, question)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrGenerationUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
		}
		return "", err
	}
	logger.Elapsed("generate answer with "+s.generator.ModelName(), start)
	return text, nil
}

// session returns the requested session when it belongs to the document,
// otherwise a new one.
func (s *QuestionService) session(ctx context.Context, documentID, sessionID string) (*domain.ChatSession, error) {
	if sessionID != "" {
		existing, err := s.chats.GetSession(ctx, sessionID)
		switch {
		case err == nil && existing.DocumentID == documentID:
			return existing, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("get session: %w", err)
		}
		logger.Debug("Session %s not found for %s, starting a new one", sessionID, documentID)
	}

	session := &domain.ChatSession{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		CreatedAt:  time.Now(),
	}
	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// History returns the document's sessions, newest first.
func (s *QuestionService) History(ctx context.Context, documentID string) ([]domain.ChatSession, error) {
	if _, err := s.metadata.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.chats.ListSessions(ctx, documentID)
}
