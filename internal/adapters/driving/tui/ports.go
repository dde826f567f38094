// Package tui provides the interactive chat interface for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Documents lists the documents that can be chatted with.
	Documents driving.DocumentService

	// Questions answers questions and returns chat history.
	Questions driving.QuestionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	if p.Questions == nil {
		return ErrMissingQuestionService
	}
	return nil
}
