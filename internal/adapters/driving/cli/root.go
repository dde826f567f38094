// Package cli implements the docqa command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Services bundles the driving ports available to commands.
type Services struct {
	Settings  driving.SettingsService
	Documents driving.DocumentService
	Questions driving.QuestionService
	Ingestion driving.IngestionService
	Retrieval driving.RetrievalService

	// Warnings describe optional parts that could not be set up.
	Warnings []string
}

// LoadOptions tells the loader how much to build.
type LoadOptions struct {
	// ConfigDir overrides the default configuration directory.
	ConfigDir string

	// SettingsOnly skips the document pipeline.
	SettingsOnly bool
}

// Loader builds the services for a command. The returned function releases them.
type Loader func(ctx context.Context, opts LoadOptions) (*Services, func() error, error)

// Service requirements of a command, set through the "services" annotation.
const (
	annotationServices = "services"
	needsNone          = "none"
	needsSettings      = "settings"
)

var (
	settingsService  driving.SettingsService
	documentService  driving.DocumentService
	questionService  driving.QuestionService
	ingestionService driving.IngestionService
	retrievalService driving.RetrievalService
	fileTypes        []string

	loader        Loader
	closeServices func() error

	version = "dev"

	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa stores uploaded documents, splits them into passages and answers
questions using the passages most similar to each question.

Answers are generated by a local (Ollama, LM Studio) or cloud (OpenAI,
Anthropic) model. Without a configured model the matched passages are
returned instead.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.docqa)")
}

// SetLoader sets the function that builds services before each command.
func SetLoader(l Loader) {
	loader = l
}

// SetFileTypes sets the uploadable file types listed in the upload help.
func SetFileTypes(types []string) {
	fileTypes = types
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and prints errors with a hint.
func Execute(ctx context.Context) error {
	defer teardown()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		if h := hint(err); h != "" {
			fmt.Fprintln(rootCmd.ErrOrStderr(), h)
		}
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())
	loadEnvFiles(configDir)

	if loader == nil {
		return nil
	}
	needs := cmd.Annotations[annotationServices]
	if needs == needsNone {
		return nil
	}

	svcs, closer, err := loader(cmd.Context(), LoadOptions{
		ConfigDir:    configDir,
		SettingsOnly: needs == needsSettings,
	})
	if err != nil {
		return err
	}
	closeServices = closer

	settingsService = svcs.Settings
	documentService = svcs.Documents
	questionService = svcs.Questions
	ingestionService = svcs.Ingestion
	retrievalService = svcs.Retrieval
	for _, w := range svcs.Warnings {
		logger.Warn("%s", w)
	}
	return nil
}

func teardown() {
	if closeServices == nil {
		return
	}
	if err := closeServices(); err != nil {
		logger.Error("close: %v", err)
	}
	closeServices = nil
}

// loadEnvFiles loads .env from the working directory and the config
// directory. Variables already set in the environment win.
func loadEnvFiles(dir string) {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".docqa")
		}
	}

	var files []string
	for _, f := range []string{".env", filepath.Join(dir, ".env")} {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return
	}
	if err := godotenv.Load(files...); err != nil {
		logger.Warn("Loading %v: %v", files, err)
	}
}

// hint suggests a next step for well-known failures.
func hint(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Run 'docqa documents list' to see document IDs."
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "Run 'docqa upload --help' to see supported file types."
	case errors.Is(err, domain.ErrDocumentNotIndexed):
		return "The document was not processed. Delete it and upload it again."
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "Check the embedding provider with 'docqa settings show'."
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return "Check that the LLM server is running, or see 'docqa settings show'."
	case errors.Is(err, domain.ErrInvalidChunkingConfig):
		return "chunking.overlap must be smaller than chunking.size. See 'docqa settings set --help'."
	default:
		return ""
	}
}
