package driven

// VectorIndex is an append-only nearest-neighbour structure over embedding rows.
//
// Rows carry no document association: a row is identified only by its position
// in insertion order since the last Reset. There is deliberately no way to
// delete a single row; callers must track which rows are still valid and scope
// every search through that bookkeeping.
type VectorIndex interface {
	// Insert appends vectors in order and returns the row number of the first one.
	// Every vector must have exactly Dimensions() components; on mismatch nothing is appended.
	Insert(vectors [][]float32) (int, error)

	// Search returns the k nearest rows by squared L2 distance, ascending.
	// k is clamped to Len().
	Search(query []float32, k int) ([]VectorHit, error)

	// SearchRange is Search restricted to rows in r.
	// k is clamped to the number of rows in the range.
	SearchRange(query []float32, k int, r RowRange) ([]VectorHit, error)

	// Reset removes all rows.
	Reset()

	// Len returns the number of rows.
	Len() int

	// Dimensions returns the required vector size.
	Dimensions() int
}

// VectorHit represents a nearest-neighbour result.
type VectorHit struct {
	// Row is the position of the matched vector in the index.
	Row int

	// Distance is the squared Euclidean distance to the query.
	Distance float32
}

// RowRange is the half-open interval [Start, End) of rows.
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether row lies in the range.
func (r RowRange) Contains(row int) bool {
	return row >= r.Start && row < r.End
}
