// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants upload documents and ask grounded questions about them.
package mcp

import "errors"

var (
	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")

	// ErrMissingQuestionService is returned when the question service is not provided.
	ErrMissingQuestionService = errors.New("mcp: question service is required")
)
