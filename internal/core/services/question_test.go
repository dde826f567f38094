package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestAsk(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three four five six")

	answer, err := env.questions.Ask(ctx, doc.ID, "  five six  ", "")
	require.NoError(t, err)

	assert.Equal(t, "generated answer", answer.Text)
	assert.NotEmpty(t, answer.SessionID)
	assert.Equal(t, []int{2}, answer.Retrieval.MatchedIndices())
	assert.False(t, answer.Retrieval.Fallback)

	require.Len(t, env.generator.question, 1)
	assert.Equal(t, "five six", env.generator.question[0])
	assert.Equal(t, "Chunk 1:\nfive six", env.generator.passages[0])

	history, err := env.questions.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Len(t, history[0].Messages, 1)
	msg := history[0].Messages[0]
	assert.Equal(t, "five six", msg.Question)
	assert.Equal(t, "generated answer", msg.Answer)
	assert.Equal(t, []int{2}, msg.MatchedIndices)
}

func TestAsk_FallbackContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three four five six")

	answer, err := env.questions.Ask(ctx, doc.ID, "something unrelated entirely", "")
	require.NoError(t, err)

	assert.True(t, answer.Retrieval.Fallback)
	assert.Equal(t, []int{0, 1, 2}, answer.Retrieval.MatchedIndices())
}

func TestAsk_ReusesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three")

	first, err := env.questions.Ask(ctx, doc.ID, "first?", "")
	require.NoError(t, err)
	second, err := env.questions.Ask(ctx, doc.ID, "second?", first.SessionID)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)

	history, err := env.questions.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Len(t, history[0].Messages, 2)
	assert.Equal(t, "first?", history[0].Messages[0].Question)
	assert.Equal(t, "second?", history[0].Messages[1].Question)
}

func TestAsk_SessionOfOtherDocumentStartsNewSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	docA := env.upload("a.txt", "alpha beta")
	docB := env.upload("b.txt", "gamma delta")

	onA, err := env.questions.Ask(ctx, docA.ID, "alpha?", "")
	require.NoError(t, err)
	onB, err := env.questions.Ask(ctx, docB.ID, "gamma?", onA.SessionID)
	require.NoError(t, err)
	unknown, err := env.questions.Ask(ctx, docB.ID, "delta?", "no-such-session")
	require.NoError(t, err)

	assert.NotEqual(t, onA.SessionID, onB.SessionID)
	assert.NotEqual(t, "no-such-session", unknown.SessionID)

	historyA, err := env.questions.History(ctx, docA.ID)
	require.NoError(t, err)
	require.Len(t, historyA, 1)
	assert.Len(t, historyA[0].Messages, 1)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	env := newTestEnv(t)
	doc := env.upload("notes.txt", "one two three")

	_, err := env.questions.Ask(context.Background(), doc.ID, "   ", "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, env.generator.question)
}

func TestAsk_DocumentNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.questions.Ask(context.Background(), "missing", "why?", "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAsk_NotIndexed(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument("doc-1", "notes.txt", "one two three")

	_, err := env.questions.Ask(context.Background(), doc.ID, "why?", "")

	assert.ErrorIs(t, err, domain.ErrDocumentNotIndexed)
}

func TestAsk_GeneratorErrorIsNotRecorded(t *testing.T) {
	env := newTestEnv(t)
	env.generator.err = domain.ErrGenerationError
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three")

	_, err := env.questions.Ask(ctx, doc.ID, "why?", "")
	require.ErrorIs(t, err, domain.ErrGenerationError)

	history, err := env.questions.History(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAsk_WithoutGenerator(t *testing.T) {
	env := newTestEnv(t, withoutGenerator())
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three")

	answer, err := env.questions.Ask(ctx, doc.ID, "one two three", "")
	require.NoError(t, err)

	assert.Empty(t, answer.Text)
	assert.Equal(t, []int{0}, answer.Retrieval.MatchedIndices())
}

func TestAsk_GenerationTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.generator.block = true
	env.questions.SetTimeout(20 * time.Millisecond)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three")

	_, err := env.questions.Ask(ctx, doc.ID, "why?", "")

	require.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHistory_NewestSessionFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload("notes.txt", "one two three")

	older, err := env.questions.Ask(ctx, doc.ID, "first?", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := env.questions.Ask(ctx, doc.ID, "second?", "")
	require.NoError(t, err)

	history, err := env.questions.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, newer.SessionID, history[0].ID)
	assert.Equal(t, older.SessionID, history[1].ID)
}

func TestHistory_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.questions.History(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
