package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [doc-id] [question]",
	Short: "Ask a question about a document",
	Long: `Ask a question about an uploaded document.

The passages most similar to the question are sent to the configured LLM.
Without an LLM the matched passages are printed instead.

Pass --session to continue an earlier conversation; the answer prints the
session to use.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

var historyCmd = &cobra.Command{
	Use:   "history [doc-id]",
	Short: "Show the chat history of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

// askSession is a flag for the ask command.
var askSession string

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "Continue an existing chat session")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	question := strings.Join(args[1:], " ")
	answer, err := questionService.Ask(cmd.Context(), args[0], question, askSession)
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	printAnswer(cmd, answer)
	cmd.Printf("\nSession: %s\n", answer.SessionID)
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	if answer.Text != "" {
		cmd.Println(answer.Text)
	} else {
		cmd.Println("No LLM configured. Matched passages:")
		cmd.Println()
		cmd.Println(answer.Retrieval.Context())
	}
	cmd.Printf("\nPassages: %s", formatIndices(answer.Retrieval.MatchedIndices()))
	if answer.Retrieval.Fallback {
		cmd.Print(" (no close match, leading passages used)")
	}
	cmd.Println()
}

func runHistory(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	sessions, err := questionService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}

	for i := range sessions {
		cmd.Printf("Session %s (%s)\n", sessions[i].ID, sessions[i].CreatedAt.Format(time.DateTime))
		for _, msg := range sessions[i].Messages {
			cmd.Printf("  Q: %s\n", msg.Question)
			if msg.Answer != "" {
				cmd.Printf("  A: %s\n", msg.Answer)
			}
			cmd.Printf("     passages %s\n", formatIndices(msg.MatchedIndices))
		}
		cmd.Println()
	}
	return nil
}

func formatIndices(indices []int) string {
	if len(indices) == 0 {
		return "none"
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = "#" + strconv.Itoa(idx)
	}
	return strings.Join(parts, ", ")
}
