// Package app is the composition root: it turns resolved settings into a
// set of wired services that the CLI, the MCP server and the watch folder
// share.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/filestore/local"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// filesDir is the directory under the data directory holding uploads.
const filesDir = "files"

// store is what both storage backends provide.
type store interface {
	driven.MetadataStore
	driven.ChatStore
}

// App holds the services of one running docqa instance.
type App struct {
	Settings domain.AppSettings

	Documents *services.DocumentService
	Questions *services.QuestionService
	Ingestion *services.IngestionService
	Retrieval *services.RetrievalService

	// Extractor reports which file types can be uploaded.
	Extractor *normalisers.Registry

	// Warnings are non-fatal problems found while wiring, such as a
	// generator that could not be built.
	Warnings []string

	ai      *ai.InitResult
	closers []func() error
}

// NewSettingsService opens the TOML config in configDir (~/.docqa when empty)
// and returns a settings service over it.
func NewSettingsService(configDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// Build wires every adapter and service for settings. prompts may be nil,
// in which case the built-in prompts are used.
func Build(settings domain.AppSettings, prompts driven.PromptStore) (*App, error) {
	chunks, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("Chunking: %d words per passage, %d overlap", chunks.ChunkSize(), chunks.Overlap())

	a := &App{Settings: settings, Extractor: normalisers.DefaultRegistry()}

	aiResult, err := ai.Init(settings, prompts)
	if err != nil {
		return nil, err
	}
	a.ai = aiResult
	a.Warnings = append(a.Warnings, aiResult.Warnings...)
	a.closers = append(a.closers, func() error {
		aiResult.Close()
		return nil
	})

	index, err := flat.New(aiResult.EmbeddingService.Dimensions())
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create vector index: %w", err)
	}

	meta, files, err := a.openStorage(settings.Storage)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Retrieval = services.NewRetrievalService(index, aiResult.EmbeddingService, settings.Retrieval)
	a.Ingestion = services.NewIngestionService(files, meta, a.Extractor, chunks, a.Retrieval)
	a.Documents = services.NewDocumentService(files, meta, a.Extractor, a.Ingestion, a.Retrieval)
	a.Questions = services.NewQuestionService(meta, meta, a.Retrieval, aiResult.AnswerGenerator)
	if settings.LLM.Timeout > 0 {
		a.Questions.SetTimeout(settings.LLM.Timeout)
	}

	logger.Debug("Wired %s backend, embedder %s (%d dims)",
		settings.Storage.Backend, aiResult.EmbeddingService.ModelName(), index.Dimensions())
	return a, nil
}

// HasGenerator reports whether answers will be generated or context only.
func (a *App) HasGenerator() bool {
	return a.ai != nil && a.ai.AnswerGenerator != nil
}

// Close releases the stores and AI clients, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStorage(settings domain.StorageSettings) (store, *local.Store, error) {
	switch settings.Backend {
	case domain.StorageBackendSQLite, "":
		dataDir, err := resolveDataDir(settings.DataDir)
		if err != nil {
			return nil, nil, err
		}
		db, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open metadata store: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		files, err := local.New(filepath.Join(dataDir, filesDir))
		if err != nil {
			return nil, nil, err
		}
		return db, files, nil

	case domain.StorageBackendMemory:
		dir := settings.DataDir
		if dir == "" {
			tmp, err := os.MkdirTemp("", "docqa-")
			if err != nil {
				return nil, nil, fmt.Errorf("create temp file store: %w", err)
			}
			a.closers = append(a.closers, func() error { return os.RemoveAll(tmp) })
			dir = tmp
		}
		files, err := local.New(filepath.Join(dir, filesDir))
		if err != nil {
			return nil, nil, err
		}
		return memory.NewStore(), files, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

func resolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	base, err := file.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "data"), nil
}
