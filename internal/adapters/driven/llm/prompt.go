// Package llm holds what the answer generator adapters share: the built-in
// prompts and the mapping of transport failures onto domain errors.
package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultSystemPrompt is the system message sent with every question.
const DefaultSystemPrompt = "You are a helpful AI assistant that answers questions based on provided document context. " +
	"Always base your answers on the given context and be specific about what information you're using."

// DefaultUserTemplate wraps the retrieved context and the question.
// It expects two %s placeholders: context, then question.
const DefaultUserTemplate = `You are an AI assistant helping users understand a document. Use the provided context to answer the question accurately and concisely.

Context from the document:
%s

Question: %s

Instructions:
- Base your answer primarily on the provided context
- If the context doesn't contain enough information, clearly state what information is missing
- Be specific and cite relevant parts of the context when possible
- Keep your answer focused and relevant to the question

Answer:`

// Prompts loads prompt templates from an optional store.
type Prompts struct {
	store driven.PromptStore
}

// SetStore sets the prompt store. A nil store selects the built-in prompts.
func (p *Prompts) SetStore(store driven.PromptStore) {
	p.store = store
}

// Build returns the system and user messages for a question.
func (p *Prompts) Build(passages, question string) (system, user string) {
	system = p.load(driven.PromptAnswerSystem, DefaultSystemPrompt)
	template := p.load(driven.PromptAnswerUser, DefaultUserTemplate)
	if strings.Count(template, "%s") != 2 {
		template = DefaultUserTemplate
	}
	return system, fmt.Sprintf(template, passages, question)
}

func (p *Prompts) load(name, fallback string) string {
	if p.store == nil {
		return fallback
	}
	prompt, err := p.store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}

// Unavailable wraps a transport failure as domain.ErrGenerationUnavailable.
func Unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrGenerationUnavailable, provider, err)
}

// StatusError reports a non-success response as domain.ErrGenerationError.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 500 {
		msg = msg[:500] + "..."
	}
	return fmt.Errorf("%w: %s returned status %d: %s", domain.ErrGenerationError, provider, status, msg)
}

// ResponseError reports an unusable success response as domain.ErrGenerationError.
func ResponseError(provider, reason string) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrGenerationError, provider, reason)
}

// IsStatusOK reports whether status is a 2xx code.
func IsStatusOK(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
