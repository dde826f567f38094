package domain

import (
	"fmt"
	"strings"
)

// Match is one passage selected as context for a question.
type Match struct {
	// Index is the passage position within its document.
	Index int

	// Content is the passage text.
	Content string

	// Distance is the squared L2 distance to the question embedding.
	// Nil for passages chosen by the fallback policy.
	Distance *float32
}

// Retrieval is the ranked context assembled for one question.
type Retrieval struct {
	// DocumentID is the document that was searched.
	DocumentID string

	// Matches are the passages used, in ascending distance order,
	// or in document order when Fallback is set.
	Matches []Match

	// Fallback is true when no passage passed the distance threshold
	// and the leading passages were used instead.
	Fallback bool
}

// MatchedIndices returns the passage indices used, for highlighting.
func (r *Retrieval) MatchedIndices() []int {
	indices := make([]int, len(r.Matches))
	for i, m := range r.Matches {
		indices[i] = m.Index
	}
	return indices
}

// PassagesUsed returns the number of passages in the context.
func (r *Retrieval) PassagesUsed() int {
	return len(r.Matches)
}

// Context renders the matches as labelled blocks:
// "Chunk 1:\n<text>" entries joined by a blank line.
func (r *Retrieval) Context() string {
	blocks := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		blocks[i] = fmt.Sprintf("Chunk %d:\n%s", i+1, m.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// RetrievalSettings tunes the query path.
type RetrievalSettings struct {
	// TopK is the number of nearest passages requested (clamped to the corpus size).
	TopK int

	// Threshold is the exclusive upper bound on squared L2 distance.
	Threshold float32

	// FallbackCount is how many leading passages are used when nothing matches.
	FallbackCount int
}

// DefaultRetrievalSettings returns the tuned defaults for 384-dim MiniLM embeddings.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		TopK:          5,
		Threshold:     1.5,
		FallbackCount: 3,
	}
}
