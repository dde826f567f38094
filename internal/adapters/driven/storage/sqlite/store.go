package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.MetadataStore = (*Store)(nil)
	_ driven.ChatStore     = (*Store)(nil)
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "metadata.db"

// Store is a SQLite-backed metadata and chat store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.docqa/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docqa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Documents ====================

const documentColumns = `id, title, path, file_type, size, pages, status, created_at, updated_at`

// CreateDocument stores a new document record.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	if doc.Status == "" {
		doc.Status = domain.StatusPending
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, doc.ID, doc.Title, doc.Path, doc.FileType, doc.Size, nullInt(doc.Pages),
		doc.Status.String(), doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument writes back the fields derived by ingestion.
func (s *Store) UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, size = ?, file_type = ?, pages = ?, updated_at = ?
		WHERE id = ?
	`, update.Status.String(), update.Size, update.FileType, nullInt(update.Pages), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document. Passages and chat history cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Passages ====================

// CreatePassage stores one passage of an existing document.
func (s *Store) CreatePassage(ctx context.Context, documentID string, index, pageNumber int, content string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO passages (id, document_id, position, page_number, content)
		SELECT ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM documents WHERE id = ?)
	`, uuid.New().String(), documentID, index, pageNumber, content, documentID)
	if err != nil {
		return fmt.Errorf("saving passage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeletePassages removes every passage of a document.
func (s *Store) DeletePassages(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM passages WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting passages: %w", err)
	}
	return nil
}

// ListPassages returns a document's passages ordered by index.
func (s *Store) ListPassages(ctx context.Context, documentID string) ([]domain.Passage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, position, page_number, content
		FROM passages WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var passages []domain.Passage //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Passage
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Index, &p.PageNumber, &p.Content); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		passages = append(passages, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}
	return passages, nil
}

// ==================== Chat ====================

// CreateSession opens a new session for an existing document.
func (s *Store) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, document_id, created_at)
		SELECT ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM documents WHERE id = ?)
	`, session.ID, session.DocumentID, session.CreatedAt.UTC(), session.DocumentID)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetSession retrieves a session without its messages.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, created_at FROM chat_sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.DocumentID, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &session, nil
}

// AddMessage records one exchange in an existing session.
func (s *Store) AddMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	indices := msg.MatchedIndices
	if indices == nil {
		indices = []int{}
	}
	indicesJSON, err := json.Marshal(indices)
	if err != nil {
		return fmt.Errorf("marshalling matched indices: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, question, answer, matched_indices, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM chat_sessions WHERE id = ?)
	`, msg.ID, msg.SessionID, msg.Question, msg.Answer, string(indicesJSON), msg.CreatedAt.UTC(), msg.SessionID)
	if err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListSessions returns a document's sessions newest first, each with its
// messages oldest first.
func (s *Store) ListSessions(ctx context.Context, documentID string) ([]domain.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, created_at FROM chat_sessions
		WHERE document_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}

	var sessions []domain.ChatSession //nolint:prealloc // size unknown from query
	index := make(map[string]int)
	for rows.Next() {
		var session domain.ChatSession
		if err := rows.Scan(&session.ID, &session.DocumentID, &session.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		index[session.ID] = len(sessions)
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	rows.Close()

	if len(sessions) == 0 {
		return sessions, nil
	}

	msgRows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.session_id, m.question, m.answer, m.matched_indices, m.created_at
		FROM chat_messages m
		JOIN chat_sessions cs ON cs.id = m.session_id
		WHERE cs.document_id = ?
		ORDER BY m.created_at ASC, m.rowid ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var msg domain.ChatMessage
		var indicesJSON string
		if err := msgRows.Scan(&msg.ID, &msg.SessionID, &msg.Question, &msg.Answer,
			&indicesJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if err := json.Unmarshal([]byte(indicesJSON), &msg.MatchedIndices); err != nil {
			return nil, fmt.Errorf("unmarshalling matched indices: %w", err)
		}
		if i, ok := index[msg.SessionID]; ok {
			sessions[i].Messages = append(sessions[i].Messages, msg)
		}
	}

	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return sessions, nil
}

// ==================== Helpers ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var pages sql.NullInt64
	var status string

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Path, &doc.FileType, &doc.Size,
		&pages, &status, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.ProcessingStatus(status)
	if pages.Valid {
		n := int(pages.Int64)
		doc.Pages = &n
	}
	return &doc, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
