package driven

import "context"

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	// FileTypes returns the file types handled, as lower-case extensions without the dot.
	FileTypes() []string

	// Normalise reads the file at path and returns its full plain text.
	// A file with no extractable text yields "" and no error.
	Normalise(ctx context.Context, path string) (string, error)
}

// TextExtractor dispatches extraction on a document's declared file type.
type TextExtractor interface {
	// Extract returns the text of the file at path.
	// Unknown file types fail with domain.ErrUnsupportedFormat.
	Extract(ctx context.Context, path, fileType string) (string, error)

	// Supports reports whether fileType has a normaliser.
	Supports(fileType string) bool
}
