package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// sqliteFileName is the database file created inside the cache directory.
const sqliteFileName = "cache.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	category    TEXT    NOT NULL,
	key         TEXT    NOT NULL,
	identifier  TEXT    NOT NULL,
	payload     BLOB    NOT NULL,
	created_at  INTEGER NOT NULL,
	ttl_seconds INTEGER NOT NULL,
	PRIMARY KEY (category, key)
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_created ON cache_entries(created_at);
`

// sqliteBackend keeps every entry in one table keyed by (category, key).
// created_at is stored as Unix nanoseconds so the TTL comparison is exact.
// Each mutation is a single statement, which SQLite applies atomically.
type sqliteBackend struct {
	path string
	db   *sql.DB
}

func newSQLiteBackend(directory string) (*sqliteBackend, error) {
	if err := os.MkdirAll(directory, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(directory, sqliteFileName)
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, execErr := db.Exec(sqliteSchema); execErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", execErr)
	}
	return &sqliteBackend{path: path, db: db}, nil
}

func (b *sqliteBackend) name() string { return BackendSQLite }

func (b *sqliteBackend) location() string { return b.path }

func (b *sqliteBackend) read(category Category, key string) (*Entry, error) {
	var (
		entry   Entry
		payload []byte
		created int64
	)
	err := b.db.QueryRow(
		`SELECT identifier, payload, created_at, ttl_seconds FROM cache_entries WHERE category = ? AND key = ?`,
		string(category), key,
	).Scan(&entry.Identifier, &payload, &created, &entry.TTLSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errEntryMissing
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache entry: %w", err)
	}

	entry.Key = key
	entry.Category = category
	entry.Payload = payload
	entry.CreatedAt = time.Unix(0, created)
	return &entry, nil
}

func (b *sqliteBackend) write(entry *Entry) error {
	_, err := b.db.Exec(`
		INSERT INTO cache_entries (category, key, identifier, payload, created_at, ttl_seconds)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, key) DO UPDATE SET
			identifier = excluded.identifier,
			payload = excluded.payload,
			created_at = excluded.created_at,
			ttl_seconds = excluded.ttl_seconds
	`, string(entry.Category), entry.Key, entry.Identifier, []byte(entry.Payload),
		entry.CreatedAt.UnixNano(), entry.TTLSeconds)
	if err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

func (b *sqliteBackend) remove(category Category, key string) error {
	if _, err := b.db.Exec(
		`DELETE FROM cache_entries WHERE category = ? AND key = ?`, string(category), key,
	); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (b *sqliteBackend) clear(category Category) (int, error) {
	var (
		res sql.Result
		err error
	)
	if category == CategoryAll {
		res, err = b.db.Exec(`DELETE FROM cache_entries`)
	} else {
		res, err = b.db.Exec(`DELETE FROM cache_entries WHERE category = ?`, string(category))
	}
	if err != nil {
		return 0, fmt.Errorf("deleting cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted entries: %w", err)
	}
	return int(n), nil
}

// sweep deletes rows with now - created_at >= ttl. The predicate is evaluated
// per row inside one statement, so a row upserted concurrently is judged on its
// new created_at.
func (b *sqliteBackend) sweep(now time.Time) (int, error) {
	res, err := b.db.Exec(
		`DELETE FROM cache_entries WHERE ? - created_at >= ttl_seconds * 1000000000`,
		now.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired entries: %w", err)
	}
	return int(n), nil
}

func (b *sqliteBackend) stats(now time.Time) (map[Category]CategoryStats, error) {
	rows, err := b.db.Query(`
		SELECT category,
			COUNT(*),
			COALESCE(SUM(CASE WHEN ? - created_at < ttl_seconds * 1000000000 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(LENGTH(payload)), 0)
		FROM cache_entries
		GROUP BY category
	`, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("querying cache stats: %w", err)
	}
	defer rows.Close()

	out := make(map[Category]CategoryStats)
	for rows.Next() {
		var (
			category string
			cs       CategoryStats
		)
		if scanErr := rows.Scan(&category, &cs.TotalEntries, &cs.ValidEntries, &cs.SizeBytes); scanErr != nil {
			return nil, fmt.Errorf("scanning cache stats: %w", scanErr)
		}
		cs.ExpiredEntries = cs.TotalEntries - cs.ValidEntries
		out[Category(category)] = cs
	}
	return out, rows.Err()
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}
