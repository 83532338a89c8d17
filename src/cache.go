package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// TimestampCache remembers EXIF timestamps per file so repeated runs and
// simulations skip the decode. Entries are valid only while the file's
// size and mtime are unchanged. The cache is best-effort throughout: any
// failure just means a decode happens again.
type TimestampCache struct {
	db *sql.DB
}

// OpenTimestampCache opens or creates the cache database under the
// user's cache directory.
func OpenTimestampCache() (*TimestampCache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("locate cache dir: %w", err)
	}

	cacheDir := filepath.Join(base, "exif-rename")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	dbPath := filepath.Join(cacheDir, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// WAL keeps readers from blocking the (single) writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Retry for up to 5 seconds instead of failing on a locked db
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS timestamps (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		processed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mod_time ON timestamps(mod_time);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &TimestampCache{db: db}, nil
}

// Close closes the cache database
func (c *TimestampCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get retrieves a cached timestamp if the file is unchanged
func (c *TimestampCache) Get(path string, size int64, modTime time.Time) (time.Time, bool) {
	var unix int64

	err := c.db.QueryRow(`
		SELECT timestamp
		FROM timestamps
		WHERE path = ? AND size = ? AND mod_time = ?
	`, path, size, modTime.Unix()).Scan(&unix)

	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

// Put stores a resolved timestamp for a file
func (c *TimestampCache) Put(path string, size int64, modTime time.Time, ts time.Time) {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO timestamps
		(path, size, mod_time, timestamp, processed_at)
		VALUES (?, ?, ?, ?, ?)
	`, path, size, modTime.Unix(), ts.Unix(), time.Now().Unix())

	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache write failed for %s: %v\n", path, err)
	}
}

// UpdatePath re-keys an entry after a rename so the next run still hits
// the cache for the moved file.
func (c *TimestampCache) UpdatePath(oldPath, newPath string) {
	_, err := c.db.Exec(`
		UPDATE OR REPLACE timestamps SET path = ? WHERE path = ?
	`, newPath, oldPath)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache update failed for %s: %v\n", oldPath, err)
	}
}

// Stats returns the number of cached entries
func (c *TimestampCache) Stats() (total int64) {
	c.db.QueryRow("SELECT COUNT(*) FROM timestamps").Scan(&total)
	return
}

// PruneDeleted removes entries for files that no longer exist
func (c *TimestampCache) PruneDeleted() (int64, error) {
	rows, err := c.db.Query("SELECT path FROM timestamps")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var toDelete []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			toDelete = append(toDelete, path)
		}
	}

	if len(toDelete) == 0 {
		return 0, nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM timestamps WHERE path = ?")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, path := range toDelete {
		if _, err := stmt.Exec(path); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return int64(len(toDelete)), nil
}
