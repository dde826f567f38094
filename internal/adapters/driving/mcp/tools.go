package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// UploadInput is the input schema for the upload_document tool.
type UploadInput struct {
	Path  string `json:"path" jsonschema:"absolute path of a local .pdf, .docx or .txt file"`
	Title string `json:"title,omitempty" jsonschema:"display title (defaults to the file name)"`
}

// UploadOutput is the output schema for the upload_document tool.
type UploadOutput struct {
	Document     DocumentOutput `json:"document"`
	PassageCount int            `json:"passage_count"`
}

// DocumentOutput is the JSON form of a document.
type DocumentOutput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	FileType  string `json:"file_type"`
	Size      int64  `json:"size"`
	Pages     *int   `json:"pages,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// AskInput is the input schema for the ask_question tool.
type AskInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document to ask about"`
	Question   string `json:"question" jsonschema:"the question"`
	SessionID  string `json:"session_id,omitempty" jsonschema:"continue an existing chat session"`
}

// AskOutput is the output schema for the ask_question tool.
type AskOutput struct {
	Answer         string `json:"answer"`
	SessionID      string `json:"session_id"`
	MatchedIndices []int  `json:"matched_indices"`
	PassagesUsed   int    `json:"passages_used"`
	Fallback       bool   `json:"fallback"`
	Context        string `json:"context,omitempty"`
}

// ListInput is the input schema for the list_documents tool.
type ListInput struct{}

// ListOutput is the output schema for the list_documents tool.
type ListOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document to delete"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	Deleted string `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upload_document",
		Description: "Upload a local document and index it for questions",
	}, s.handleUpload)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using the passages of one document",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents, newest first",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document with its passages and chat history",
	}, s.handleDelete)
}

// handleUpload handles the upload_document tool invocation.
func (s *Server) handleUpload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadInput,
) (*mcp.CallToolResult, UploadOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, UploadOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, UploadOutput{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, result, err := s.ports.Documents.Upload(ctx, driving.UploadRequest{
		Filename: filepath.Base(path),
		Title:    input.Title,
		Content:  f,
	})
	if err != nil {
		return nil, UploadOutput{}, err
	}

	return nil, UploadOutput{
		Document:     toDocumentOutput(doc),
		PassageCount: result.PassageCount,
	}, nil
}

// handleAsk handles the ask_question tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Questions.Ask(ctx, input.DocumentID, input.Question, input.SessionID)
	if errors.Is(err, domain.ErrDocumentNotIndexed) && s.ports.Ingestion != nil {
		logger.Debug("Restoring %s before answering", input.DocumentID)
		if rerr := s.ports.Ingestion.Restore(ctx, input.DocumentID); rerr != nil {
			return nil, AskOutput{}, rerr
		}
		answer, err = s.ports.Questions.Ask(ctx, input.DocumentID, input.Question, input.SessionID)
	}
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:         answer.Text,
		SessionID:      answer.SessionID,
		MatchedIndices: answer.Retrieval.MatchedIndices(),
		PassagesUsed:   answer.Retrieval.PassagesUsed(),
		Fallback:       answer.Retrieval.Fallback,
	}
	if output.Answer == "" {
		output.Context = answer.Retrieval.Context()
	}
	return nil, output, nil
}

// handleList handles the list_documents tool invocation.
func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListOutput{}, err
	}

	output := ListOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = toDocumentOutput(&docs[i])
	}
	return nil, output, nil
}

// handleDelete handles the delete_document tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.ports.Documents.Delete(ctx, input.DocumentID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: input.DocumentID}, nil
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:        doc.ID,
		Title:     doc.Title,
		FileType:  doc.FileType,
		Size:      doc.Size,
		Pages:     doc.Pages,
		Status:    doc.Status.String(),
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	}
}
