// Package migrations embeds the versioned schema of the SQLite store.
// Files are named NNN_description.up.sql and NNN_description.down.sql.
package migrations

import "embed"

// FS holds the migration scripts.
//
//go:embed *.sql
var FS embed.FS
