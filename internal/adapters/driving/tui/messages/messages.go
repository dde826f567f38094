// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments lists uploaded documents.
	ViewDocuments ViewType = iota
	// ViewChat is the question and answer view for one document.
	ViewChat
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// DocumentsLoaded carries the document list.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected opens the chat view for a document.
type DocumentSelected struct {
	Document domain.Document
}

// HistoryLoaded carries the chat sessions of a document, newest first.
type HistoryLoaded struct {
	DocumentID string
	Sessions   []domain.ChatSession
	Err        error
}

// AnswerReceived carries the result of asking a question.
type AnswerReceived struct {
	DocumentID string
	Question   string
	Answer     *domain.Answer
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
