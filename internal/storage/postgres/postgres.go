// Package postgres opens the PostgreSQL-backed student store using the
// pgx driver through database/sql.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aanand-mishra/camp-control/internal/storage/sqlstore"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id                  TEXT             PRIMARY KEY,
		name                TEXT             NOT NULL,
		dni                 TEXT             NOT NULL,
		paid                BOOLEAN          NOT NULL DEFAULT FALSE,
		amount              DOUBLE PRECISION NOT NULL DEFAULT 0,
		cannot_pay          BOOLEAN          NOT NULL DEFAULT FALSE,
		authorized          BOOLEAN          NOT NULL DEFAULT FALSE,
		medication          TEXT,
		special_care        TEXT,
		headache_medication TEXT,
		fever_medication    TEXT,
		emergency_contact   TEXT
	)
`

// New opens a pool to dsn, pings it and creates the students table.
func New(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}

	return sqlstore.New(db, sqlstore.Dollar), nil
}
