// Package frontier implements the durable URL frontier (§4.1): a
// single-file, transactional, SQLite-backed table of every URL the
// crawl has ever discovered, keyed by URL string, with a bloom-filter
// fast path guarding the common "never seen this URL" case.
package frontier

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Frontier is the single instance of the URL table for one crawl run.
// All mutation is serialized at the storage layer: the underlying
// *sql.DB is capped to one open connection, matching SQLite's
// single-writer model, so database/sql itself queues concurrent
// callers rather than racing them.
type Frontier struct {
	db   *sql.DB
	path string
	seen *dedupFilter
}

// New builds a Frontier over path. Use ":memory:" for a volatile,
// test-only frontier. Call Open before use.
func New(path string) *Frontier {
	return &Frontier{
		path: path,
		seen: newDedupFilter(1_000_000, 0.01),
	}
}

// Open establishes the connection, applies durability pragmas, and
// creates the schema if absent. On a resumed run it also rebuilds the
// bloom filter from the existing table so the fast path stays correct
// across restarts.
func (fr *Frontier) Open(ctx context.Context) error {
	conn, err := sql.Open("sqlite3", fr.path)
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase}
	}

	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase}
	}

	if fr.path != ":memory:" {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase}
		}
	}

	fr.db = conn

	if err := fr.createSchema(ctx); err != nil {
		conn.Close()
		return err
	}

	if err := fr.rebuildDedupFilter(ctx); err != nil {
		conn.Close()
		return err
	}

	return nil
}

func (fr *Frontier) Close() error {
	if fr.db == nil {
		return nil
	}
	return fr.db.Close()
}

func (fr *Frontier) createSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS urls (
			url          TEXT PRIMARY KEY,
			status       TEXT NOT NULL DEFAULT 'todo',
			try_count    INTEGER NOT NULL DEFAULT 0,
			level        INTEGER NOT NULL DEFAULT 0,
			top_url      TEXT,
			status_code  INTEGER,
			referrer     TEXT,
			inline       INTEGER NOT NULL DEFAULT 0,
			link_type    TEXT NOT NULL DEFAULT '',
			url_encoding TEXT,
			post_data    BLOB,
			filename     TEXT,
			created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		);

		CREATE INDEX IF NOT EXISTS idx_urls_status ON urls(status);
	`
	if _, err := fr.db.ExecContext(ctx, schema); err != nil {
		return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase}
	}
	return nil
}

func (fr *Frontier) rebuildDedupFilter(ctx context.Context) error {
	rows, err := fr.db.QueryContext(ctx, "SELECT url FROM urls")
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase}
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseEncoding}
		}
		fr.seen.Mark(u)
	}
	return rows.Err()
}

// Add inserts each URL only if absent, then applies defaults to every
// supplied URL (pre-existing rows included). Status, try_count,
// status_code, and filename are never touched by Add. The whole batch
// commits atomically: either every URL is added/updated or none is.
func (fr *Frontier) Add(ctx context.Context, urls []string, defaults AddDefaults) error {
	if len(urls) == 0 {
		return nil
	}

	tx, err := fr.db.BeginTx(ctx, nil)
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO urls (url, level, top_url, referrer, inline, link_type, url_encoding, post_data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase}
	}
	defer insert.Close()

	update, err := tx.PrepareContext(ctx, `UPDATE urls SET level = ?, top_url = ?, referrer = ?, inline = ?, link_type = ?, url_encoding = ?, post_data = ? WHERE url = ?`)
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase}
	}
	defer update.Close()

	inline := 0
	if defaults.Inline {
		inline = 1
	}

	for _, u := range urls {
		if _, err := insert.ExecContext(ctx, u, defaults.Level, defaults.TopURL, defaults.Referrer, inline, string(defaults.LinkType), defaults.URLEncoding, defaults.PostData); err != nil {
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: u}
		}
		if _, err := update.ExecContext(ctx, defaults.Level, defaults.TopURL, defaults.Referrer, inline, string(defaults.LinkType), defaults.URLEncoding, defaults.PostData, u); err != nil {
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: u}
		}
	}

	if err := tx.Commit(); err != nil {
		return &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}

	for _, u := range urls {
		fr.seen.Mark(u)
	}
	return nil
}

// MaybeSeen is the bloom-filter fast path: false is a certain "never
// added to this frontier"; true only means "possibly added" and callers
// that want a definitive answer must still consult Add/GetAndUpdate.
func (fr *Frontier) MaybeSeen(rawURL string) bool {
	return fr.seen.MaybeSeen(rawURL)
}

// GetAndUpdate atomically selects one row with status == from (and,
// when maxLevel is non-nil, level < *maxLevel), transitions it to to,
// and returns the updated row. It fails with a NotFound FrontierError
// when no row matches. Ordering is insertion order (rowid), the
// recommended stable tie-break.
func (fr *Frontier) GetAndUpdate(ctx context.Context, from, to URLStatus, maxLevel *int) (*URLRecord, error) {
	tx, err := fr.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}
	defer tx.Rollback()

	query := "SELECT url FROM urls WHERE status = ?"
	args := []any{string(from)}
	if maxLevel != nil {
		query += " AND level < ?"
		args = append(args, *maxLevel)
	}
	query += " ORDER BY rowid LIMIT 1"

	var url string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&url); err != nil {
		if err == sql.ErrNoRows {
			return nil, &FrontierError{Message: "no row available", Retryable: false, Cause: ErrCauseNotFound}
		}
		return nil, &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE urls SET status = ? WHERE url = ?", string(to), url); err != nil {
		return nil, &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: url}
	}

	rec, err := scanOne(ctx, tx, url)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}
	return rec, nil
}

// Update sets the fields named in f on url, optionally incrementing
// try_count atomically within the same statement set.
func (fr *Frontier) Update(ctx context.Context, rawURL string, f UpdateFields) error {
	tx, err := fr.db.BeginTx(ctx, nil)
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}
	defer tx.Rollback()

	if f.Status != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE urls SET status = ? WHERE url = ?", string(*f.Status), rawURL); err != nil {
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: rawURL}
		}
	}
	if f.StatusCode != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE urls SET status_code = ? WHERE url = ?", *f.StatusCode, rawURL); err != nil {
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: rawURL}
		}
	}
	if f.Filename != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE urls SET filename = ? WHERE url = ?", *f.Filename, rawURL); err != nil {
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: rawURL}
		}
	}
	if f.IncrementTryCount {
		if _, err := tx.ExecContext(ctx, "UPDATE urls SET try_count = try_count + 1 WHERE url = ?", rawURL); err != nil {
			return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: rawURL}
		}
	}

	if err := tx.Commit(); err != nil {
		return &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}
	return nil
}

// Release transitions every in_progress row back to todo. Called once
// at startup, before any worker dispatches, to repair rows orphaned by
// an unclean shutdown.
func (fr *Frontier) Release(ctx context.Context) error {
	_, err := fr.db.ExecContext(ctx, "UPDATE urls SET status = ? WHERE status = ?", string(StatusTodo), string(StatusInProgress))
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}
	return nil
}

// RemoveOne deletes url's row outright. Only the hook-driven replace
// path uses this; normal lifecycle ends in a terminal status, not
// removal.
func (fr *Frontier) RemoveOne(ctx context.Context, rawURL string) error {
	_, err := fr.db.ExecContext(ctx, "DELETE FROM urls WHERE url = ?", rawURL)
	if err != nil {
		return &FrontierError{Message: err.Error(), Retryable: false, Cause: ErrCauseDatabase, URL: rawURL}
	}
	return nil
}

// Count returns the number of rows, optionally restricted to one status.
func (fr *Frontier) Count(ctx context.Context, status *URLStatus) (int, error) {
	query := "SELECT COUNT(*) FROM urls"
	args := []any{}
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	var n int
	if err := fr.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase}
	}
	return n, nil
}

// Get looks up a single row by URL, returning a NotFound FrontierError
// if absent.
func (fr *Frontier) Get(ctx context.Context, rawURL string) (*URLRecord, error) {
	return scanOne(ctx, fr.db, rawURL)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanOne(ctx context.Context, q querier, rawURL string) (*URLRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT url, status, try_count, level, top_url, status_code, referrer, inline, link_type, url_encoding, post_data, filename, created_at FROM urls WHERE url = ?`, rawURL)

	var (
		rec        URLRecord
		status     string
		inline     int
		linkType   string
		createdRaw string
	)
	if err := row.Scan(&rec.URL, &status, &rec.TryCount, &rec.Level, &rec.TopURL, &rec.StatusCode, &rec.Referrer, &inline, &linkType, &rec.URLEncoding, &rec.PostData, &rec.Filename, &createdRaw); err != nil {
		if err == sql.ErrNoRows {
			return nil, &FrontierError{Message: "no such url", Retryable: false, Cause: ErrCauseNotFound, URL: rawURL}
		}
		return nil, &FrontierError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase, URL: rawURL}
	}

	rec.Status = URLStatus(status)
	rec.Inline = inline != 0
	rec.LinkType = LinkType(linkType)
	if t, err := parseTimestamp(createdRaw); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
