package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float32) *float32 { return &f }

func TestRetrieval_Context(t *testing.T) {
	r := Retrieval{
		Matches: []Match{
			{Index: 4, Content: "gamma delta", Distance: ptr(0.2)},
			{Index: 0, Content: "alpha beta", Distance: ptr(0.9)},
		},
	}

	assert.Equal(t, "Chunk 1:\ngamma delta\n\nChunk 2:\nalpha beta", r.Context())
	assert.Equal(t, []int{4, 0}, r.MatchedIndices())
	assert.Equal(t, 2, r.PassagesUsed())
}

func TestRetrieval_Empty(t *testing.T) {
	var r Retrieval

	assert.Equal(t, "", r.Context())
	assert.Empty(t, r.MatchedIndices())
	assert.Zero(t, r.PassagesUsed())
}

func TestDefaultRetrievalSettings(t *testing.T) {
	s := DefaultRetrievalSettings()

	assert.Equal(t, 5, s.TopK)
	assert.InDelta(t, 1.5, s.Threshold, 1e-6)
	assert.Equal(t, 3, s.FallbackCount)
}
