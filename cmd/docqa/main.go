// Command docqa answers questions about uploaded documents.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/app"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetFileTypes(normalisers.DefaultRegistry().FileTypes())
	cli.SetLoader(load)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// load resolves settings and, unless only settings are needed, builds the
// document pipeline. Question answering restores documents indexed by an
// earlier process on first use.
func load(_ context.Context, opts cli.LoadOptions) (*cli.Services, func() error, error) {
	settingsSvc, err := app.NewSettingsService(opts.ConfigDir)
	if err != nil {
		return nil, nil, err
	}
	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsSvc}, func() error { return nil }, nil
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, nil, err
	}
	if settings.Storage.DataDir == "" && opts.ConfigDir != "" {
		settings.Storage.DataDir = filepath.Join(opts.ConfigDir, "data")
	}

	promptDir := ""
	if opts.ConfigDir != "" {
		promptDir = filepath.Join(opts.ConfigDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Build(*settings, prompts)
	if err != nil {
		return nil, nil, err
	}

	return &cli.Services{
		Settings:  settingsSvc,
		Documents: a.Documents,
		Questions: services.NewRestoringQuestionService(a.Questions, a.Ingestion),
		Ingestion: a.Ingestion,
		Retrieval: a.Retrieval,
		Warnings:  a.Warnings,
	}, a.Close, nil
}
