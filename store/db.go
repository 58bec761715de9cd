// Package store implements the entry store: deduplicated persistent
// storage keyed by guid, keyset-paginated by (published_time, rowid), with
// a parallel full-text search index.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a single-writer sqlite connection holding the entries, etags
// and search tables.
type DB struct {
	*sql.DB
	stmts *preparedStmts
}

type preparedStmts struct {
	putEntry    *sql.Stmt
	putSearch   *sql.Stmt
	getETag     *sql.Stmt
	putETag     *sql.Stmt
	listFirst   *sql.Stmt
	listCursor  *sql.Stmt
	search      *sql.Stmt
}

// Open opens (creating if absent) the sqlite file at path, applying the
// same WAL-mode single-writer configuration the teacher's store used:
// one open connection, so all writers serialize through it while the
// driver's internal connection pool never hands out a second one.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &DB{DB: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return store, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		rowid  INTEGER PRIMARY KEY AUTOINCREMENT,
		data   TEXT NOT NULL,
		time   INTEGER NOT NULL,
		guid   TEXT UNIQUE GENERATED ALWAYS AS (json_extract(data, '$.id')) STORED,
		source TEXT GENERATED ALWAYS AS (json_extract(data, '$.source')) STORED
	);

	CREATE TABLE IF NOT EXISTS etags (
		feed TEXT PRIMARY KEY,
		etag TEXT,
		time INTEGER
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS search USING fts5(
		title, description, source,
		tokenize = 'porter unicode61'
	);

	CREATE INDEX IF NOT EXISTS idx_entries_time_rowid ON entries(time DESC, rowid DESC);
	`

	_, err := db.Exec(schema)
	return err
}

func (db *DB) Close() error {
	if db.stmts != nil {
		_ = db.stmts.putEntry.Close()
		_ = db.stmts.putSearch.Close()
		_ = db.stmts.getETag.Close()
		_ = db.stmts.putETag.Close()
		_ = db.stmts.listFirst.Close()
		_ = db.stmts.listCursor.Close()
		_ = db.stmts.search.Close()
	}
	return db.DB.Close()
}

func (db *DB) prepareStatements() error {
	db.stmts = &preparedStmts{}
	var err error

	db.stmts.putEntry, err = db.Prepare(
		`REPLACE INTO entries (data, time) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare putEntry: %w", err)
	}

	db.stmts.putSearch, err = db.Prepare(
		`REPLACE INTO search (rowid, title, description, source) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare putSearch: %w", err)
	}

	db.stmts.getETag, err = db.Prepare(
		`SELECT etag, time FROM etags WHERE feed = ?`)
	if err != nil {
		return fmt.Errorf("prepare getETag: %w", err)
	}

	db.stmts.putETag, err = db.Prepare(
		`REPLACE INTO etags (feed, etag, time) VALUES (?, ?, strftime('%s','now'))`)
	if err != nil {
		return fmt.Errorf("prepare putETag: %w", err)
	}

	db.stmts.listFirst, err = db.Prepare(
		`SELECT rowid, data, time FROM entries ORDER BY time DESC, rowid DESC LIMIT ?`)
	if err != nil {
		return fmt.Errorf("prepare listFirst: %w", err)
	}

	db.stmts.listCursor, err = db.Prepare(
		`SELECT rowid, data, time FROM entries
		 WHERE time < ? OR (time = ? AND rowid < ?)
		 ORDER BY time DESC, rowid DESC LIMIT ?`)
	if err != nil {
		return fmt.Errorf("prepare listCursor: %w", err)
	}

	db.stmts.search, err = db.Prepare(
		`SELECT entries.rowid, entries.data, entries.time
		 FROM search JOIN entries ON entries.rowid = search.rowid
		 WHERE search MATCH ?
		 ORDER BY entries.time DESC, entries.rowid DESC LIMIT ?`)
	if err != nil {
		return fmt.Errorf("prepare search: %w", err)
	}

	return nil
}

// BeginTx starts a transaction used by PutEntries to batch one source's
// upserts into a single commit (spec's commit-per-source standardization).
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.DB.BeginTx(ctx, nil)
}
