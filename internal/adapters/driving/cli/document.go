package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload and process a document",
	Long: `Store a document, extract its text, split it into passages and index them.

The file extension selects the text extractor. A file that cannot be
processed is not kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage uploaded documents",
	Long:    `List, inspect, or delete uploaded documents.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsPassagesCmd = &cobra.Command{
	Use:   "passages [doc-id]",
	Short: "Print a document's passages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsPassages,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes the document, its passages, its chat history and the stored file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

// uploadTitle is a flag for the upload command.
var uploadTitle string

func init() {
	uploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "Document title (defaults to the file name)")
	uploadCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		rootCmd.HelpFunc()(cmd, args)
		if len(fileTypes) > 0 {
			cmd.Printf("\nSupported file types: %s\n", strings.Join(fileTypes, ", "))
		}
	})

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsPassagesCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	cmd.Printf("Processing %s...\n", filepath.Base(path))
	doc, result, err := documentService.Upload(cmd.Context(), driving.UploadRequest{
		Filename: filepath.Base(path),
		Title:    uploadTitle,
		Content:  f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	cmd.Printf("Uploaded: %s\n", doc.Title)
	cmd.Printf("  ID: %s\n", doc.ID)
	cmd.Printf("  Type: %s\n", result.FileType)
	cmd.Printf("  Size: %s\n", formatSize(result.Size))
	if result.Pages != nil {
		cmd.Printf("  Pages: %d\n", *result.Pages)
	}
	cmd.Printf("  Passages: %d\n", result.PassageCount)
	cmd.Printf("\nAsk a question with: docqa ask %s \"...\"\n", doc.ID)
	return nil
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found. Upload one with: docqa upload <file>")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		cmd.Printf("    Uploaded: %s\n", docs[i].CreatedAt.Format(time.DateTime))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID: %s\n", doc.ID)
	cmd.Printf("Title: %s\n", doc.Title)
	cmd.Printf("Type: %s\n", doc.FileType)
	cmd.Printf("Size: %s\n", formatSize(doc.Size))
	if doc.Pages != nil {
		cmd.Printf("Pages: %d\n", *doc.Pages)
	}
	cmd.Printf("Status: %s\n", doc.Status)
	cmd.Printf("Uploaded: %s\n", doc.CreatedAt.Format(time.DateTime))
	cmd.Printf("Updated: %s\n", doc.UpdatedAt.Format(time.DateTime))
	return nil
}

func runDocumentsPassages(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	passages, err := documentService.Passages(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get passages: %w", err)
	}

	if len(passages) == 0 {
		cmd.Println("No passages.")
		return nil
	}

	for i := range passages {
		cmd.Printf("--- Passage %d (page %d) ---\n", passages[i].Index, passages[i].PageNumber)
		cmd.Println(passages[i].Content)
		cmd.Println()
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document: %s\n", args[0])
	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGT"[exp])
}
