package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers/docx"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry maps file types to normalisers.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
// A later normaliser replaces an earlier one for the same file type.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// DefaultRegistry returns a registry for pdf, docx and txt files.
func DefaultRegistry() *Registry {
	return NewRegistry(pdf.New(), docx.New(), plaintext.New())
}

// Register adds a normaliser for each file type it declares.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ft := range n.FileTypes() {
		r.byExt[normaliseType(ft)] = n
	}
}

// Supports reports whether fileType has a normaliser.
func (r *Registry) Supports(fileType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byExt[normaliseType(fileType)]
	return ok
}

// FileTypes returns the registered file types, sorted.
func (r *Registry) FileTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byExt))
	for ft := range r.byExt {
		types = append(types, ft)
	}
	sort.Strings(types)
	return types
}

// Extract returns the text of the file at path using the normaliser for fileType.
func (r *Registry) Extract(ctx context.Context, path, fileType string) (string, error) {
	r.mu.RLock()
	n, ok := r.byExt[normaliseType(fileType)]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, fileType)
	}
	return n.Normalise(ctx, path)
}

func normaliseType(fileType string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(fileType)), ".")
}
