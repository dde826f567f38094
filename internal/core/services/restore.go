package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure RestoringQuestionService implements the interface.
var _ driving.QuestionService = (*RestoringQuestionService)(nil)

// RestoringQuestionService wraps a QuestionService and rebuilds a missing
// corpus entry from persisted passages before retrying a question once.
// Used by processes that start with an empty in-memory corpus.
type RestoringQuestionService struct {
	driving.QuestionService
	ingestion driving.IngestionService
}

// NewRestoringQuestionService creates a question service that restores on demand.
func NewRestoringQuestionService(
	questions driving.QuestionService,
	ingestion driving.IngestionService,
) *RestoringQuestionService {
	return &RestoringQuestionService{QuestionService: questions, ingestion: ingestion}
}

// Ask answers the question, restoring the document's corpus entry when it is missing.
func (s *RestoringQuestionService) Ask(
	ctx context.Context, documentID, question, sessionID string,
) (*domain.Answer, error) {
	answer, err := s.QuestionService.Ask(ctx, documentID, question, sessionID)
	if !errors.Is(err, domain.ErrDocumentNotIndexed) {
		return answer, err
	}

	logger.Debug("Document %s not indexed, restoring from stored passages", documentID)
	if rerr := s.ingestion.Restore(ctx, documentID); rerr != nil {
		return nil, fmt.Errorf("restore %s: %w", documentID, rerr)
	}
	return s.QuestionService.Ask(ctx, documentID, question, sessionID)
}
