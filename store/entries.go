package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kierank/feedor/entry"
)

// Cursor is the keyset pagination position echoed back by List.
type Cursor struct {
	Time  int64
	RowID int64
}

// PutEntry upserts a single entry: replace-on-guid into entries, then the
// parallel search row keyed by the new rowid, committed together.
func (db *DB) PutEntry(ctx context.Context, e entry.Entry) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := putEntryTx(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

// PutEntries upserts a batch of entries (one source's round of results) in
// a single transaction, per the spec's commit-per-source standardization.
func (db *DB) PutEntries(ctx context.Context, entries []entry.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, e := range entries {
		if err := putEntryTx(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func putEntryTx(ctx context.Context, tx *sql.Tx, e entry.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", e.ID, err)
	}

	res, err := tx.ExecContext(ctx, `REPLACE INTO entries (data, time) VALUES (?, ?)`, string(data), e.PublishedTime)
	if err != nil {
		return fmt.Errorf("put entry %s: %w", e.ID, err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id for %s: %w", e.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`REPLACE INTO search (rowid, title, description, source) VALUES (?, ?, ?, ?)`,
		rowID, e.Title, e.Description, e.Source)
	if err != nil {
		return fmt.Errorf("put search row for %s: %w", e.ID, err)
	}

	return nil
}

// List returns up to limit entries ordered by (published_time DESC, rowid
// DESC), optionally continuing from cursor, along with the cursor of the
// last row yielded (nil if the page was empty).
func (db *DB) List(ctx context.Context, limit int, cursor *Cursor) ([]entry.Entry, *Cursor, error) {
	var rows *sql.Rows
	var err error

	if cursor == nil {
		rows, err = db.stmts.listFirst.QueryContext(ctx, limit)
	} else {
		rows, err = db.stmts.listCursor.QueryContext(ctx, cursor.Time, cursor.Time, cursor.RowID, limit)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries, next, err := scanEntryRows(rows)
	if err != nil {
		return nil, nil, err
	}
	return entries, next, nil
}

// Search runs query (passed verbatim, no rewriting) against the FTS
// index, joined back to entries and ordered the same way List is.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]entry.Entry, error) {
	rows, err := db.stmts.search.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()

	entries, _, err := scanEntryRows(rows)
	return entries, err
}

func scanEntryRows(rows *sql.Rows) ([]entry.Entry, *Cursor, error) {
	var entries []entry.Entry
	var last *Cursor

	for rows.Next() {
		var rowID int64
		var data string
		var t int64
		if err := rows.Scan(&rowID, &data, &t); err != nil {
			return nil, nil, fmt.Errorf("scan entry row: %w", err)
		}
		var e entry.Entry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, nil, fmt.Errorf("unmarshal entry row %d: %w", rowID, err)
		}
		entries = append(entries, e)
		last = &Cursor{Time: t, RowID: rowID}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return entries, last, nil
}

// ListImageEnclosures scans every stored entry's links for enclosures
// whose type starts with "image/", returning their hrefs.
func (db *DB) ListImageEnclosures(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT data FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("list entries for enclosures: %w", err)
	}
	defer rows.Close()

	var hrefs []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		var e entry.Entry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			continue
		}
		for _, l := range e.Links {
			if l.Rel == "enclosure" && strings.HasPrefix(l.Type, "image/") {
				hrefs = append(hrefs, l.Href)
			}
		}
	}
	return hrefs, rows.Err()
}

// GetETag implements fetch.EtagStore.
func (db *DB) GetETag(ctx context.Context, feedURL string) (string, int64, bool, error) {
	var etag string
	var t int64
	err := db.stmts.getETag.QueryRowContext(ctx, feedURL).Scan(&etag, &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, false, nil
		}
		return "", 0, false, fmt.Errorf("get etag for %s: %w", feedURL, err)
	}
	return etag, t, true, nil
}

// PutETag implements fetch.EtagStore.
func (db *DB) PutETag(ctx context.Context, feedURL, etag string) error {
	_, err := db.stmts.putETag.ExecContext(ctx, feedURL, etag)
	if err != nil {
		return fmt.Errorf("put etag for %s: %w", feedURL, err)
	}
	return nil
}
