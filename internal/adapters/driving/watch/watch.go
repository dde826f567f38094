// Package watch uploads files dropped into a folder and deletes the
// documents of files removed from it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultSettleDelay is how long a file must stay unchanged before upload.
const DefaultSettleDelay = 500 * time.Millisecond

// ErrMissingDocumentService is returned when no document service is given.
var ErrMissingDocumentService = errors.New("watch: document service is required")

// Watcher mirrors a folder into the document store. Only files created while
// it runs are uploaded; the path to document mapping lives in memory.
type Watcher struct {
	dir       string
	documents driving.DocumentService
	supports  func(fileType string) bool
	settle    time.Duration

	mu      sync.Mutex
	byPath  map[string]string
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettleDelay sets how long writes must pause before a file is uploaded.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.settle = d
	}
}

// WithFilter limits uploads to file types for which supports returns true.
func WithFilter(supports func(fileType string) bool) Option {
	return func(w *Watcher) {
		w.supports = supports
	}
}

// New creates a watcher for dir.
func New(dir string, documents driving.DocumentService, opts ...Option) (*Watcher, error) {
	if documents == nil {
		return nil, ErrMissingDocumentService
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	w := &Watcher{
		dir:       dir,
		documents: documents,
		supports:  func(string) bool { return true },
		settle:    DefaultSettleDelay,
		byPath:    make(map[string]string),
		pending:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches the folder until ctx is cancelled. Uploads in flight finish
// before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// Document returns the document ID uploaded for path.
func (w *Watcher) Document(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.byPath[path]
	return id, ok
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if isHidden(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return
		}
		if !w.supports(domain.FileTypeOf(event.Name)) {
			logger.Debug("Skipping %s: unsupported file type", event.Name)
			return
		}
		w.schedule(ctx, event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.remove(ctx, event.Name)
	}
}

// schedule uploads path once it has not changed for the settle delay.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.settle)
		return
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.upload(ctx, path)
	})
	w.pending[path] = timer
}

func (w *Watcher) upload(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Open %s: %v", path, err)
		return
	}
	defer f.Close()

	doc, result, err := w.documents.Upload(ctx, driving.UploadRequest{
		Filename: filepath.Base(path),
		Content:  f,
	})
	if err != nil {
		logger.Error("Upload %s: %v", path, err)
		return
	}

	w.mu.Lock()
	old, replaced := w.byPath[path]
	w.byPath[path] = doc.ID
	w.mu.Unlock()

	// A rewritten file replaces its previous document once the new one is in.
	if replaced && old != doc.ID {
		if err := w.documents.Delete(ctx, old); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Delete previous version of %s: %v", path, err)
		}
	}
	logger.Info("Uploaded %s as %s (%d passages)", path, doc.ID, result.PassageCount)
}

func (w *Watcher) remove(ctx context.Context, path string) {
	w.mu.Lock()
	if t, ok := w.pending[path]; ok && t.Stop() {
		delete(w.pending, path)
		w.wg.Done()
	}
	id, ok := w.byPath[path]
	delete(w.byPath, path)
	w.mu.Unlock()

	if !ok {
		return
	}
	if err := w.documents.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Error("Delete %s for removed %s: %v", id, path, err)
		return
	}
	logger.Info("Deleted %s after %s was removed", id, path)
}

// stop cancels pending uploads and waits for running ones.
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
