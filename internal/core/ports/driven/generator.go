package driven

import "context"

// AnswerGenerator produces a natural-language answer grounded on retrieved context.
// This is an optional service - when nil, questions return the context only.
//
// Implementations map transport failures onto domain.ErrGenerationUnavailable
// and unusable responses (non-success status, no choices) onto
// domain.ErrGenerationError. Nothing is retried.
//
// Implementations may include:
//   - LM Studio / OpenAI (chat completions)
//   - Ollama (local models)
//   - Anthropic (messages API)
type AnswerGenerator interface {
	// Generate answers question using only the given block of passages.
	Generate(ctx context.Context, passages, question string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
