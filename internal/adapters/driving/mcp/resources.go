package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	documentsListURI = "documents://list"

	// passagesURIPrefix and passagesURISuffix frame document://{id}/passages.
	passagesURIPrefix = "document://"
	passagesURISuffix = "/passages"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsListURI,
		Name:        "documents",
		Description: "All uploaded documents, newest first",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: passagesURIPrefix + "{documentId}" + passagesURISuffix,
		Name:        "document-passages",
		Description: "Passages of a document in index order",
		MIMEType:    "application/json",
	}, s.handlePassagesResource)
}

// handleDocumentsResource returns all documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]DocumentOutput, len(docs))
	for i := range docs {
		infos[i] = toDocumentOutput(&docs[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handlePassagesResource returns the passages of one document.
func (s *Server) handlePassagesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	passages, err := s.ports.Documents.Passages(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("listing passages: %w", err)
	}

	type passageInfo struct {
		Index      int    `json:"index"`
		PageNumber int    `json:"page_number"`
		Content    string `json:"content"`
	}

	infos := make([]passageInfo, len(passages))
	for i, p := range passages {
		infos[i] = passageInfo{Index: p.Index, PageNumber: p.PageNumber, Content: p.Content}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like document://{id}/passages.
func extractDocumentID(uri string) string {
	if !strings.HasPrefix(uri, passagesURIPrefix) || !strings.HasSuffix(uri, passagesURISuffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, passagesURIPrefix), passagesURISuffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
