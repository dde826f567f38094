// Package sqlite provides a SQLite-based implementation of the metadata and
// chat store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database connection pool serves:
//
//   - MetadataStore: documents and their passages
//   - ChatStore: question and answer sessions
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, and foreign keys cascade deletes from documents to
// passages and chat history.
package sqlite
