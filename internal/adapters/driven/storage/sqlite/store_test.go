package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func createTestDocument(t *testing.T, store *Store, id string, createdAt time.Time) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:        id,
		Title:     "Document " + id,
		Path:      "/data/documents/" + id + "/file.txt",
		FileType:  "txt",
		Status:    domain.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, store.CreateDocument(context.Background(), doc))
	return doc
}

// ==================== Store Creation ====================

func TestNewStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_MigrationsRecorded(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
	require.NoError(t, store.Close())

	// Reopening must not re-apply migrations.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	var count int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store := setupTestStore(t)

	var enabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

// ==================== Documents ====================

func TestDocuments_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	createTestDocument(t, store, "doc-1", created)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)

	assert.Equal(t, "Document doc-1", doc.Title)
	assert.Equal(t, "txt", doc.FileType)
	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.Nil(t, doc.Pages)
	assert.True(t, created.Equal(doc.CreatedAt))
}

func TestDocuments_CreateDuplicate(t *testing.T) {
	store := setupTestStore(t)
	createTestDocument(t, store, "doc-1", time.Now())

	err := store.CreateDocument(context.Background(), &domain.Document{ID: "doc-1", Title: "again", Path: "p"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocuments_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetDocument(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocuments_ListNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createTestDocument(t, store, "old", base)
	createTestDocument(t, store, "new", base.Add(time.Hour))
	createTestDocument(t, store, "mid", base.Add(time.Minute))

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "mid", docs[1].ID)
	assert.Equal(t, "old", docs[2].ID)
}

func TestDocuments_ListEmpty(t *testing.T) {
	store := setupTestStore(t)

	docs, err := store.ListDocuments(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocuments_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", time.Now())

	pages := 12
	err := store.UpdateDocument(ctx, "doc-1", domain.DocumentUpdate{
		Status:   domain.StatusProcessed,
		Size:     2048,
		FileType: "pdf",
		Pages:    &pages,
	})
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, doc.Status)
	assert.Equal(t, int64(2048), doc.Size)
	assert.Equal(t, "pdf", doc.FileType)
	require.NotNil(t, doc.Pages)
	assert.Equal(t, 12, *doc.Pages)
}

func TestDocuments_UpdateNotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateDocument(context.Background(), "missing", domain.DocumentUpdate{Status: domain.StatusFailed})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocuments_DeleteCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", time.Now())
	require.NoError(t, store.CreatePassage(ctx, "doc-1", 0, 1, "text"))
	session := &domain.ChatSession{ID: "s-1", DocumentID: "doc-1"}
	require.NoError(t, store.CreateSession(ctx, session))
	require.NoError(t, store.AddMessage(ctx, &domain.ChatMessage{ID: "m-1", SessionID: "s-1", Question: "q", Answer: "a"}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	passages, err := store.ListPassages(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, passages)
	_, err = store.GetSession(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var messages int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM chat_messages").Scan(&messages))
	assert.Zero(t, messages)
}

// ==================== Passages ====================

func TestPassages_CreateAndListOrdered(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", time.Now())

	for _, i := range []int{2, 0, 1} {
		require.NoError(t, store.CreatePassage(ctx, "doc-1", i, domain.DefaultPageNumber, "passage"))
	}

	passages, err := store.ListPassages(ctx, "doc-1")
	require.NoError(t, err)

	require.Len(t, passages, 3)
	for i, p := range passages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, "doc-1", p.DocumentID)
		assert.Equal(t, 1, p.PageNumber)
		assert.NotEmpty(t, p.ID)
	}
}

func TestPassages_RequireDocument(t *testing.T) {
	store := setupTestStore(t)

	err := store.CreatePassage(context.Background(), "missing", 0, 1, "text")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPassages_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", time.Now())
	createTestDocument(t, store, "doc-2", time.Now())
	require.NoError(t, store.CreatePassage(ctx, "doc-1", 0, 1, "one"))
	require.NoError(t, store.CreatePassage(ctx, "doc-2", 0, 1, "two"))

	require.NoError(t, store.DeletePassages(ctx, "doc-1"))

	passages, err := store.ListPassages(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, passages)

	passages, err = store.ListPassages(ctx, "doc-2")
	require.NoError(t, err)
	assert.Len(t, passages, 1)

	// Indices can be reused after a delete.
	assert.NoError(t, store.CreatePassage(ctx, "doc-1", 0, 1, "again"))
}

// ==================== Chat ====================

func TestChat_SessionsAndMessages(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	createTestDocument(t, store, "doc-1", base)

	older := &domain.ChatSession{ID: "older", DocumentID: "doc-1", CreatedAt: base}
	newer := &domain.ChatSession{ID: "newer", DocumentID: "doc-1", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, store.CreateSession(ctx, older))
	require.NoError(t, store.CreateSession(ctx, newer))

	require.NoError(t, store.AddMessage(ctx, &domain.ChatMessage{
		ID: "m-2", SessionID: "older", Question: "second?", Answer: "b",
		MatchedIndices: []int{0, 2}, CreatedAt: base.Add(2 * time.Minute),
	}))
	require.NoError(t, store.AddMessage(ctx, &domain.ChatMessage{
		ID: "m-1", SessionID: "older", Question: "first?", Answer: "a",
		CreatedAt: base.Add(time.Minute),
	}))

	sessions, err := store.ListSessions(ctx, "doc-1")
	require.NoError(t, err)

	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].ID)
	assert.Empty(t, sessions[0].Messages)
	assert.Equal(t, "older", sessions[1].ID)
	require.Len(t, sessions[1].Messages, 2)
	assert.Equal(t, "first?", sessions[1].Messages[0].Question)
	assert.Equal(t, []int{}, sessions[1].Messages[0].MatchedIndices)
	assert.Equal(t, "second?", sessions[1].Messages[1].Question)
	assert.Equal(t, []int{0, 2}, sessions[1].Messages[1].MatchedIndices)
}

func TestChat_GetSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", time.Now())
	require.NoError(t, store.CreateSession(ctx, &domain.ChatSession{ID: "s-1", DocumentID: "doc-1"}))

	session, err := store.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", session.DocumentID)
	assert.False(t, session.CreatedAt.IsZero())

	_, err = store.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChat_RequireParents(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.CreateSession(ctx, &domain.ChatSession{ID: "s-1", DocumentID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.AddMessage(ctx, &domain.ChatMessage{ID: "m-1", SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChat_ListSessionsEmpty(t *testing.T) {
	store := setupTestStore(t)

	sessions, err := store.ListSessions(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Empty(t, sessions)
}
