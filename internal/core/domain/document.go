package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// ProcessingStatus is the lifecycle state of an uploaded document.
type ProcessingStatus string

// Processing states.
const (
	// StatusPending is set when the record is created, before ingestion.
	StatusPending ProcessingStatus = "pending"

	// StatusProcessed is set once passages are persisted and indexed.
	StatusProcessed ProcessingStatus = "processed"

	// StatusFailed marks a document whose ingestion did not complete.
	StatusFailed ProcessingStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// Document represents an uploaded file and its derived metadata.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title. Defaults to the uploaded filename.
	Title string

	// Path is where the file store keeps the uploaded bytes.
	Path string

	// FileType is the lower-case extension without the leading dot (e.g. "pdf").
	FileType string

	// Size is the stored file size in bytes. Zero until processed.
	Size int64

	// Pages is the page count for paginated formats, nil when unknown.
	Pages *int

	// Status is the processing state.
	Status ProcessingStatus

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document record last changed.
	UpdatedAt time.Time
}

// FileTypeOf returns the normalised file type for a filename:
// the lower-case extension without the dot, or "" when there is none.
func FileTypeOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// DefaultPageNumber is recorded for passages whose page is unknown.
const DefaultPageNumber = 1

// Passage is an ordered unit of text belonging to exactly one document.
// Indices are contiguous from zero in creation order.
type Passage struct {
	// ID is the unique identifier for the passage record.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the position within the document.
	Index int

	// PageNumber is the source page, DefaultPageNumber when unknown.
	PageNumber int

	// Content is the passage text.
	Content string
}

// DocumentUpdate carries the fields written back once ingestion finishes.
type DocumentUpdate struct {
	Status   ProcessingStatus
	Size     int64
	FileType string
	Pages    *int
}

// IngestResult is reported to the caller after a document is processed.
type IngestResult struct {
	// DocumentID is the processed document.
	DocumentID string

	// Status is the final processing status.
	Status ProcessingStatus

	// PassageCount is the number of passages produced. May be zero.
	PassageCount int

	// Size is the file size in bytes.
	Size int64

	// FileType is the normalised file type.
	FileType string

	// Pages is the page count for PDFs, nil for other types.
	Pages *int
}
