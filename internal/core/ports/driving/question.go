package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QuestionService answers questions about documents and keeps the history.
type QuestionService interface {
	// Ask answers question about a document. An empty sessionID, or one that
	// belongs to another document, starts a new session.
	Ask(ctx context.Context, documentID, question, sessionID string) (*domain.Answer, error)

	// History returns the document's sessions, newest first.
	History(ctx context.Context, documentID string) ([]domain.ChatSession, error)
}
