package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// minCompactRows keeps small indexes from being rebuilt on every replace.
const minCompactRows = 1024

// RetrievalService owns the vector index and the corpus registry.
//
// One RWMutex guards both: inserting rows and recording the entry happen
// under the write lock, as do eviction and any reset or compaction of the
// index. Searches take the read lock. Embedding always happens outside it.
type RetrievalService struct {
	mu       sync.RWMutex
	index    driven.VectorIndex
	registry *corpusRegistry

	embedder driven.EmbeddingService
	settings domain.RetrievalSettings
}

// NewRetrievalService creates a retrieval service over an empty index.
// Zero-valued settings fields fall back to domain.DefaultRetrievalSettings.
func NewRetrievalService(
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	settings domain.RetrievalSettings,
) *RetrievalService {
	defaults := domain.DefaultRetrievalSettings()
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.Threshold <= 0 {
		settings.Threshold = defaults.Threshold
	}
	if settings.FallbackCount <= 0 {
		settings.FallbackCount = defaults.FallbackCount
	}

	return &RetrievalService{
		index:    index,
		registry: newCorpusRegistry(),
		embedder: embedder,
		settings: settings,
	}
}

// Index embeds a document's passages and records them as its corpus entry,
// replacing any previous entry. An empty passage list records an empty entry.
func (s *RetrievalService) Index(ctx context.Context, documentID string, passages []string) error {
	var embeddings [][]float32
	if len(passages) > 0 {
		start := time.Now()
		var err error
		embeddings, err = s.embedder.EmbedBatch(ctx, passages)
		if err != nil {
			return fmt.Errorf("embed passages: %w", err)
		}
		if len(embeddings) != len(passages) {
			return fmt.Errorf("embed passages: got %d embeddings for %d passages", len(embeddings), len(passages))
		}
		logger.Elapsed(fmt.Sprintf("embed %d passages", len(passages)), start)
	}

	return s.register(documentID, passages, embeddings)
}

// register inserts embeddings into the index and records the entry.
func (s *RetrievalService) register(documentID string, passages []string, embeddings [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.index.Len()
	if len(embeddings) > 0 {
		var err error
		start, err = s.index.Insert(embeddings)
		if err != nil {
			return fmt.Errorf("insert vectors: %w", err)
		}
	}

	s.registry.put(documentID, &corpusEntry{
		passages:   passages,
		embeddings: embeddings,
		rows:       driven.RowRange{Start: start, End: start + len(embeddings)},
	})
	logger.Debug("Indexed %s: %d passages at rows [%d, %d)", documentID, len(passages), start, start+len(embeddings))

	s.maybeCompactLocked()
	return nil
}

// Evict drops the document's corpus entry. Absent ids are ignored.
// Once no entries remain the index is reset.
func (s *RetrievalService) Evict(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.remove(documentID) {
		return
	}
	logger.Debug("Evicted %s", documentID)

	if s.registry.len() == 0 {
		s.index.Reset()
		logger.Debug("Corpus empty, vector index reset")
		return
	}
	s.maybeCompactLocked()
}

// maybeCompactLocked rebuilds the index once orphaned rows outnumber live ones.
// The caller must hold the write lock.
func (s *RetrievalService) maybeCompactLocked() {
	total := s.index.Len()
	live := s.registry.liveRows()
	if total < minCompactRows || total-live <= live {
		return
	}

	logger.Debug("Compacting vector index: %d rows, %d live", total, live)

	ids := make([]string, 0, s.registry.len())
	for id := range s.registry.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s.index.Reset()
	for _, id := range ids {
		old, _ := s.registry.get(id)
		entry := &corpusEntry{passages: old.passages, embeddings: old.embeddings}
		start := s.index.Len()
		if len(old.embeddings) > 0 {
			var err error
			start, err = s.index.Insert(old.embeddings)
			if err != nil {
				// Vectors were accepted once with the same dimensions.
				logger.Error("compaction dropped %s: %v", id, err)
				s.registry.remove(id)
				continue
			}
		}
		entry.rows = driven.RowRange{Start: start, End: start + len(old.embeddings)}
		s.registry.put(id, entry)
	}
}

// Query embeds the question and returns the context for it.
func (s *RetrievalService) Query(ctx context.Context, documentID, question string) (*domain.Retrieval, error) {
	logger.Section("Retrieval")
	logger.Debug("Document: %s, question: %q", documentID, question)

	s.mu.RLock()
	entry, ok := s.registry.get(documentID)
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotIndexed, documentID)
	}
	if len(entry.passages) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyCorpus, documentID)
	}

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	logger.Elapsed("embed question", start)

	matches, entry, err := s.search(documentID, vector)
	if err != nil {
		return nil, err
	}

	result := &domain.Retrieval{DocumentID: documentID, Matches: matches}
	if len(matches) == 0 {
		n := min(s.settings.FallbackCount, len(entry.passages))
		logger.Debug("No passage under threshold %.2f, using first %d", s.settings.Threshold, n)
		result.Fallback = true
		result.Matches = make([]domain.Match, n)
		for i := range n {
			result.Matches[i] = domain.Match{Index: i, Content: entry.passages[i]}
		}
	}

	logger.Info("Retrieved %d passages (fallback=%t): %v", result.PassagesUsed(), result.Fallback, result.MatchedIndices())
	return result, nil
}

// search runs the scoped nearest-neighbour search under the read lock.
// The entry is looked up again because it may have been replaced or evicted
// while the question was being embedded.
func (s *RetrievalService) search(documentID string, vector []float32) ([]domain.Match, *corpusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.registry.get(documentID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotIndexed, documentID)
	}
	if len(entry.passages) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrEmptyCorpus, documentID)
	}

	k := min(s.settings.TopK, len(entry.passages))
	hits, err := s.index.SearchRange(vector, k, entry.rows)
	if err != nil {
		return nil, nil, fmt.Errorf("search: %w", err)
	}

	matches := make([]domain.Match, 0, len(hits))
	for _, hit := range hits {
		idx, ok := entry.passage(hit.Row)
		if !ok {
			logger.Warn("Dropping row %d outside %s rows [%d, %d)", hit.Row, documentID, entry.rows.Start, entry.rows.End)
			continue
		}
		logger.Debug("Row %d -> passage %d, distance %.4f", hit.Row, idx, hit.Distance)
		if hit.Distance >= s.settings.Threshold {
			continue
		}
		distance := hit.Distance
		matches = append(matches, domain.Match{
			Index:    idx,
			Content:  entry.passages[idx],
			Distance: &distance,
		})
	}
	return matches, entry, nil
}

// Indexed reports whether the document has a corpus entry.
func (s *RetrievalService) Indexed(documentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry.get(documentID)
	return ok
}

// Stats reports the current size of the corpus.
func (s *RetrievalService) Stats() driving.CorpusStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return driving.CorpusStats{
		Documents: s.registry.len(),
		Passages:  s.registry.passages(),
		Rows:      s.index.Len(),
	}
}
