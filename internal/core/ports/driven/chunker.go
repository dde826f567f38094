package driven

// Chunker splits document text into ordered, overlapping passages.
type Chunker interface {
	// Chunk returns the passage texts in document order.
	// Empty text yields no passages and no error.
	Chunk(text string) ([]string, error)
}
