package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrInvalidChunkingConfig", ErrInvalidChunkingConfig},
		{"ErrExtractionFailed", ErrExtractionFailed},
		{"ErrDocumentNotIndexed", ErrDocumentNotIndexed},
		{"ErrEmptyCorpus", ErrEmptyCorpus},
		{"ErrGenerationUnavailable", ErrGenerationUnavailable},
		{"ErrGenerationError", ErrGenerationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrUnsupportedFormat, ErrInvalidChunkingConfig, ErrExtractionFailed,
		ErrDocumentNotIndexed, ErrEmptyCorpus, ErrGenerationUnavailable, ErrGenerationError,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestErrExtractionFailed_WrapsCause(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrExtractionFailed, ErrUnsupportedFormat)

	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, ErrDocumentNotIndexed)
}
