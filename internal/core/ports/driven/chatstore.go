package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ChatStore persists question and answer history.
type ChatStore interface {
	// CreateSession opens a new session for a document.
	CreateSession(ctx context.Context, session *domain.ChatSession) error

	// GetSession retrieves a session without its messages.
	// Returns domain.ErrNotFound if it does not exist.
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)

	// AddMessage records one exchange in a session.
	AddMessage(ctx context.Context, msg *domain.ChatMessage) error

	// ListSessions returns a document's sessions newest first,
	// each with its messages oldest first.
	ListSessions(ctx context.Context, documentID string) ([]domain.ChatSession, error)
}
