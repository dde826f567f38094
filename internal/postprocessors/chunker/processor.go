// Package chunker splits document text into overlapping word windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of words per passage.
const DefaultChunkSize = 300

// DefaultChunkOverlap is the default number of words shared by consecutive passages.
const DefaultChunkOverlap = 50

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor cuts text into windows of chunkSize words, each starting
// chunkSize-overlap words after the previous one.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between windows in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker. It fails with domain.ErrInvalidChunkingConfig when
// the window could not advance (overlap >= size) or the values are out of range.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// ChunkSize returns the window size in words.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the overlap in words.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits text on whitespace and joins each window back with single spaces.
// Windows start at word 0 and advance until the start passes the last word,
// so the final window may be shorter than the chunk size.
func (p *Processor) Chunk(text string) ([]string, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]string, 0, len(words)/step+1)

	for start := 0; start < len(words); start += step {
		end := min(start+p.chunkSize, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks, nil
}

func (p *Processor) validate() error {
	settings := domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: size %d, overlap %d", err, p.chunkSize, p.overlap)
	}
	return nil
}
