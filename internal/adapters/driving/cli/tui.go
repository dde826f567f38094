package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
)

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:   "chat [doc-id]",
	Short: "Chat with your documents",
	Long: `Launch the interactive terminal UI for asking questions about a document.

With a document ID the chat opens directly; otherwise pick a document
from the list. When input is not a terminal, questions are read line by
line and a document ID is required.

Controls:
  ↑/k, ↓/j - Navigate documents
  Enter    - Open chat / Ask
  Ctrl+N   - New session
  Esc      - Back
  ?        - Help
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

// interactive reports whether the chat can run the full screen UI.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if documentService == nil || questionService == nil {
		return errors.New("document and question services not configured")
	}

	if !interactive() {
		if len(args) == 0 {
			return errors.New("a document ID is required when input is not a terminal")
		}
		return runLineChat(cmd, args[0])
	}

	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Documents: documentService,
		Questions: questionService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if len(args) == 1 {
		doc, err := documentService.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		app.WithDocument(*doc)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runLineChat reads one question per line until EOF or "exit".
func runLineChat(cmd *cobra.Command, docID string) error {
	doc, err := documentService.Get(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Chatting with %s. Type 'exit' to quit.\n", doc.Title)

	var sessionID string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, err := questionService.Ask(cmd.Context(), docID, question, sessionID)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			if h := hint(err); h != "" {
				cmd.Println(h)
			}
			continue
		}
		sessionID = answer.SessionID
		printAnswer(cmd, answer)
		cmd.Println()
	}
}
