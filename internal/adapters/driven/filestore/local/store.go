// Package local stores uploaded documents on the local filesystem,
// one directory per document under <root>/documents.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FileStore = (*Store)(nil)

// Store keeps uploads at <root>/documents/<document id>/<filename>.
type Store struct {
	root string
}

// New creates a file store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: file store directory is empty", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, "documents"), 0700); err != nil {
		return nil, fmt.Errorf("create file store: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Save writes an upload and returns the path it was stored at.
func (s *Store) Save(ctx context.Context, documentID, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := sanitiseFilename(filename)
	if name == "" || documentID == "" || strings.ContainsAny(documentID, `/\`) {
		return "", fmt.Errorf("%w: filename %q, document %q", domain.ErrInvalidInput, filename, documentID)
	}

	dir := s.documentDir(documentID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

// Open returns the stored path and declared file type of a document.
func (s *Store) Open(_ context.Context, doc *domain.Document) (string, string, error) {
	if doc.Path == "" {
		return "", "", fmt.Errorf("%w: document %s has no stored file", domain.ErrNotFound, doc.ID)
	}
	if _, err := os.Stat(doc.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("%w: %s", domain.ErrNotFound, doc.Path)
		}
		return "", "", err
	}

	fileType := doc.FileType
	if fileType == "" {
		fileType = domain.FileTypeOf(doc.Path)
	}
	return doc.Path, fileType, nil
}

// Remove deletes a document's stored file. Missing files are not an error.
// Files inside the store take their document directory with them.
func (s *Store) Remove(_ context.Context, doc *domain.Document) error {
	dir := s.documentDir(doc.ID)
	if doc.ID != "" && s.contains(dir) {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}
	if doc.Path != "" && !s.contains(doc.Path) {
		return nil
	}
	if doc.Path != "" {
		if err := os.Remove(doc.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", doc.Path, err)
		}
	}
	return nil
}

func (s *Store) documentDir(documentID string) string {
	return filepath.Join(s.root, "documents", documentID)
}

// contains reports whether path lies strictly inside the documents directory.
func (s *Store) contains(path string) bool {
	rel, err := filepath.Rel(filepath.Join(s.root, "documents"), path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// sanitiseFilename keeps only the base name and drops path tricks.
func sanitiseFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
