package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Documents uploads, lists and deletes documents.
	Documents driving.DocumentService

	// Questions answers questions about a document.
	Questions driving.QuestionService

	// Ingestion restores documents that are stored but not indexed in this
	// process. Optional.
	Ingestion driving.IngestionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	if p.Questions == nil {
		return ErrMissingQuestionService
	}
	return nil
}
