package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestCorpusEntry_Passage(t *testing.T) {
	entry := &corpusEntry{
		passages: []string{"a", "b", "c"},
		rows:     driven.RowRange{Start: 10, End: 13},
	}

	tests := []struct {
		row    int
		want   int
		wantOK bool
	}{
		{row: 10, want: 0, wantOK: true},
		{row: 12, want: 2, wantOK: true},
		{row: 9},
		{row: 13},
	}

	for _, tt := range tests {
		idx, ok := entry.passage(tt.row)
		assert.Equal(t, tt.wantOK, ok, "row %d", tt.row)
		assert.Equal(t, tt.want, idx, "row %d", tt.row)
	}
}

func TestCorpusRegistry(t *testing.T) {
	r := newCorpusRegistry()
	r.put("a", &corpusEntry{passages: []string{"x", "y"}, rows: driven.RowRange{Start: 0, End: 2}})
	r.put("b", &corpusEntry{passages: []string{"z"}, rows: driven.RowRange{Start: 2, End: 3}})
	r.put("empty", &corpusEntry{rows: driven.RowRange{Start: 3, End: 3}})

	assert.Equal(t, 3, r.len())
	assert.Equal(t, 3, r.liveRows())
	assert.Equal(t, 3, r.passages())

	_, ok := r.get("b")
	assert.True(t, ok)

	assert.True(t, r.remove("b"))
	assert.False(t, r.remove("b"))
	_, ok = r.get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, r.liveRows())
}
