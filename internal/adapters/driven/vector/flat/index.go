// Package flat provides an exact, append-only vector index.
//
// Rows are stored contiguously in insertion order and every search is a
// brute-force scan using squared Euclidean distance, which matches the
// behaviour of an IndexFlatL2 and keeps row numbers stable until Reset.
package flat

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

var (
	// ErrDimensionMismatch is returned when a vector has the wrong length.
	ErrDimensionMismatch = errors.New("flat: dimension mismatch")

	// ErrInvalidRange is returned when a search range falls outside the index.
	ErrInvalidRange = errors.New("flat: row range out of bounds")
)

// Index is an exact nearest-neighbour index over fixed-dimension rows.
type Index struct {
	mu        sync.RWMutex
	dimension int
	data      []float32
	rows      int
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	return &Index{dimension: dimension}, nil
}

// Insert appends vectors in order and returns the row number of the first one.
// All vectors are checked before any is appended.
func (idx *Index) Insert(vectors [][]float32) (int, error) {
	for i, v := range vectors {
		if len(v) != idx.dimension {
			return 0, fmt.Errorf("%w: vector %d has %d components, want %d",
				ErrDimensionMismatch, i, len(v), idx.dimension)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	start := idx.rows
	idx.data = slices.Grow(idx.data, len(vectors)*idx.dimension)
	for _, v := range vectors {
		idx.data = append(idx.data, v...)
	}
	idx.rows += len(vectors)
	return start, nil
}

// Search returns the k nearest rows across the whole index.
func (idx *Index) Search(query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.search(query, k, driven.RowRange{Start: 0, End: idx.rows})
}

// SearchRange returns the k nearest rows within r.
func (idx *Index) SearchRange(query []float32, k int, r driven.RowRange) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if r.Start < 0 || r.End > idx.rows || r.Start > r.End {
		return nil, fmt.Errorf("%w: [%d, %d) of %d rows", ErrInvalidRange, r.Start, r.End, idx.rows)
	}
	return idx.search(query, k, r)
}

// search scans r. Callers hold the read lock.
func (idx *Index) search(query []float32, k int, r driven.RowRange) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d components, want %d",
			ErrDimensionMismatch, len(query), idx.dimension)
	}

	k = min(k, r.Len())
	if k <= 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, r.Len())
	for row := r.Start; row < r.End; row++ {
		hits = append(hits, driven.VectorHit{
			Row:      row,
			Distance: squaredL2(query, idx.data[row*idx.dimension:(row+1)*idx.dimension]),
		})
	}

	slices.SortFunc(hits, func(a, b driven.VectorHit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})

	return hits[:k:k], nil
}

// Reset removes all rows.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.data = nil
	idx.rows = 0
}

// Len returns the number of rows.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.rows
}

// Dimensions returns the required vector size.
func (idx *Index) Dimensions() int {
	return idx.dimension
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
