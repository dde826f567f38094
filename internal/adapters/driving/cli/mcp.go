package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docqa/internal/adapters/driving/watch"
	"github.com/custodia-labs/docqa/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Use --watch to upload files dropped into a folder and delete the documents
of files removed from it.

Examples:
  # Stdio mode (default, for Claude Desktop)
  docqa serve

  # HTTP mode with a watched inbox
  docqa serve --port 8080 --watch ~/inbox

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docqa": {
        "command": "/path/to/docqa",
        "args": ["serve", "--restore"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().String("watch", "", "Folder to watch for new documents")
	serveCmd.Flags().Bool("restore", false, "Index stored documents before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watchDir, err := cmd.Flags().GetString("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}
	restore, err := cmd.Flags().GetBool("restore")
	if err != nil {
		return fmt.Errorf("getting restore flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Documents: documentService,
		Questions: questionService,
		Ingestion: ingestionService,
	})
	if err != nil {
		return err
	}

	var watcher *watch.Watcher
	if watchDir != "" {
		var opts []watch.Option
		if len(fileTypes) > 0 {
			opts = append(opts, watch.WithFilter(supportedType))
		}
		watcher, err = watch.New(watchDir, documentService, opts...)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if restore {
		restoreCorpus(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if watcher != nil {
		g.Go(func() error { return watcher.Run(ctx) })
	}
	g.Go(func() error {
		// The watcher stops with the server.
		defer cancel()
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})
	return g.Wait()
}

// restoreCorpus indexes stored documents. Failures are logged and do not stop the server.
func restoreCorpus(ctx context.Context) {
	if ingestionService == nil {
		logger.Warn("Restore skipped: ingestion service not configured")
		return
	}
	n, err := ingestionService.RestoreAll(ctx)
	if err != nil {
		logger.Error("restore: %v", err)
	}
	if retrievalService != nil {
		stats := retrievalService.Stats()
		logger.Info("Restored %d documents (%d passages indexed)", n, stats.Passages)
		return
	}
	logger.Info("Restored %d documents", n)
}

func supportedType(fileType string) bool {
	for _, t := range fileTypes {
		if t == fileType {
			return true
		}
	}
	return false
}
