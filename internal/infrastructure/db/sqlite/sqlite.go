// Package sqlite implements the storage ports on an embedded SQLite file
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                           TEXT PRIMARY KEY,
	username                     TEXT NOT NULL,
	password_hash                TEXT NOT NULL,
	display_name                 TEXT NOT NULL DEFAULT '',
	email                        TEXT NOT NULL DEFAULT '',
	department                   TEXT NOT NULL DEFAULT '',
	role                         TEXT NOT NULL,
	permissions                  TEXT NOT NULL DEFAULT '[]',
	is_active                    INTEGER NOT NULL DEFAULT 1,
	created_at                   TEXT NOT NULL,
	last_login_at                TEXT,
	created_by                   TEXT NOT NULL DEFAULT '',
	credential_rotation_required INTEGER NOT NULL DEFAULT 0,
	position                     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS departments (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	department_id TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_categories_department ON categories(department_id);

CREATE TABLE IF NOT EXISTS tickets (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	department_id TEXT NOT NULL DEFAULT '',
	category_id   TEXT NOT NULL DEFAULT '',
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_by    TEXT NOT NULL,
	assigned_to   TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickets_created_by ON tickets(created_by);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);

CREATE TABLE IF NOT EXISTS audit_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	actor       TEXT NOT NULL,
	action      TEXT NOT NULL,
	target      TEXT NOT NULL DEFAULT '',
	details     TEXT NOT NULL DEFAULT '',
	occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_events(actor);
`

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// SQLite allows a single writer; one connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
