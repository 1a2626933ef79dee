// Package sqlite opens the SQLite-backed student store.
//
// The blank import registers the "sqlite3" driver with database/sql.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/aanand-mishra/camp-control/internal/storage/sqlstore"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id                  TEXT    PRIMARY KEY,
		name                TEXT    NOT NULL,
		dni                 TEXT    NOT NULL,
		paid                INTEGER NOT NULL DEFAULT 0,
		amount              REAL    NOT NULL DEFAULT 0,
		cannot_pay          INTEGER NOT NULL DEFAULT 0,
		authorized          INTEGER NOT NULL DEFAULT 0,
		medication          TEXT,
		special_care        TEXT,
		headache_medication TEXT,
		fever_medication    TEXT,
		emergency_contact   TEXT
	)
`

// New opens the SQLite database at path, creates the students table if it
// does not already exist, and returns a ready-to-use store.
func New(path string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// One writer at a time; SQLite locks the whole file anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return sqlstore.New(db, sqlstore.Question), nil
}
