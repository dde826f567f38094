package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"report.pdf", "pdf"},
		{"Report.PDF", "pdf"},
		{"notes.txt", "txt"},
		{"/tmp/uploads/letter.docx", "docx"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileTypeOf(tt.name))
		})
	}
}

func TestProcessingStatus_IsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.True(t, StatusProcessed.IsValid())
	assert.True(t, StatusFailed.IsValid())
	assert.False(t, ProcessingStatus("archived").IsValid())
	assert.False(t, ProcessingStatus("").IsValid())
}

func TestProcessingStatus_String(t *testing.T) {
	assert.Equal(t, "processed", StatusProcessed.String())
}
