package domain

import "time"

// ChatSession groups the questions asked about one document.
type ChatSession struct {
	// ID is the unique identifier for the session.
	ID string

	// DocumentID is the document the session is about.
	DocumentID string

	// CreatedAt is when the session was opened.
	CreatedAt time.Time

	// Messages are the exchanges, oldest first. Populated by history queries only.
	Messages []ChatMessage
}

// ChatMessage is one question and its generated answer.
type ChatMessage struct {
	// ID is the unique identifier for the message.
	ID string

	// SessionID links to the parent ChatSession.
	SessionID string

	// Question is the user's question.
	Question string

	// Answer is the generated answer.
	Answer string

	// MatchedIndices are the passage indices used as context.
	MatchedIndices []int

	// CreatedAt is when the exchange was recorded.
	CreatedAt time.Time
}

// Answer is returned to the user after asking a question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// SessionID is the session the exchange was recorded under.
	SessionID string

	// Retrieval is the context the answer was grounded on.
	Retrieval Retrieval
}
