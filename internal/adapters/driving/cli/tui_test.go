package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat [doc-id]", chatCmd.Use)
}

func TestChatCmd_LineModeRequiresDocument(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("chat")

	assert.EqualError(t, err, "a document ID is required when input is not a terminal")
}

func TestChatCmd_LineMode(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("how much leave?\n\n  and sick days?  \nexit\nignored\n"))

	out, err := executeCommand("chat", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Chatting with Handbook.")
	assert.Equal(t, 2, strings.Count(out, "Employees get 25 days of leave."))
	require.Len(t, ts.questions.asks, 2)
	assert.Equal(t, askCall{"doc-1", "how much leave?", ""}, ts.questions.asks[0])
	assert.Equal(t, askCall{"doc-1", "and sick days?", "session-1"}, ts.questions.asks[1])
}

func TestChatCmd_LineModeEOF(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("question without newline"))

	_, err := executeCommand("chat", "doc-1")

	require.NoError(t, err)
	assert.Len(t, ts.questions.asks, 1)
}

func TestChatCmd_LineModeKeepsGoingAfterErrors(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.questions.err = domain.ErrDocumentNotIndexed
	rootCmd.SetIn(strings.NewReader("first?\nsecond?\n"))

	out, err := executeCommand("chat", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Error: document not indexed"))
	assert.Contains(t, out, "Delete it and upload it again.")
	assert.Len(t, ts.questions.asks, 2)
}

func TestChatCmd_UnknownDocument(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("chat", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
