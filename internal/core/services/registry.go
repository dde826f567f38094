package services

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// corpusEntry is the in-memory view of one indexed document.
// Entries are immutable: re-indexing replaces the whole entry.
type corpusEntry struct {
	passages   []string
	embeddings [][]float32
	rows       driven.RowRange
}

// passage maps an index row back to a passage position.
// ok is false when the row does not belong to this entry.
func (e *corpusEntry) passage(row int) (int, bool) {
	if !e.rows.Contains(row) {
		return 0, false
	}
	idx := row - e.rows.Start
	if idx >= len(e.passages) {
		return 0, false
	}
	return idx, true
}

// corpusRegistry maps document IDs to their corpus entries.
// It is not safe for concurrent use; RetrievalService guards it.
type corpusRegistry struct {
	entries map[string]*corpusEntry
}

func newCorpusRegistry() *corpusRegistry {
	return &corpusRegistry{entries: make(map[string]*corpusEntry)}
}

func (r *corpusRegistry) get(documentID string) (*corpusEntry, bool) {
	e, ok := r.entries[documentID]
	return e, ok
}

func (r *corpusRegistry) put(documentID string, e *corpusEntry) {
	r.entries[documentID] = e
}

// remove deletes an entry and reports whether it existed.
func (r *corpusRegistry) remove(documentID string) bool {
	if _, ok := r.entries[documentID]; !ok {
		return false
	}
	delete(r.entries, documentID)
	return true
}

func (r *corpusRegistry) len() int {
	return len(r.entries)
}

// liveRows counts the index rows still referenced by an entry.
func (r *corpusRegistry) liveRows() int {
	n := 0
	for _, e := range r.entries {
		n += e.rows.Len()
	}
	return n
}

func (r *corpusRegistry) passages() int {
	n := 0
	for _, e := range r.entries {
		n += len(e.passages)
	}
	return n
}
