// Package state persists directory listing snapshots so the last known
// contents of a remote directory can be shown without a connection.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// DBName is the file name of the snapshot database inside the data directory
const DBName = "cloudbrowse.db"

// Store handles listing snapshot persistence
type Store struct {
	db *sql.DB
}

// Snapshot is a persisted listing of one directory
type Snapshot struct {
	Remote   string
	Path     string
	ListedAt time.Time
	Entries  []*domain.Entry
}

// ListingInfo summarizes a stored snapshot
type ListingInfo struct {
	Path     string
	ListedAt time.Time
	Count    int
}

// Open opens (or creates) the snapshot database in dataDir
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, DBName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids "database is locked" between the recorder
	// goroutine and CLI reads
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		remote TEXT NOT NULL,
		path TEXT NOT NULL,
		listed_at INTEGER NOT NULL,
		PRIMARY KEY (remote, path)
	);

	CREATE TABLE IF NOT EXISTS listing_entries (
		remote TEXT NOT NULL,
		path TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		entry_path TEXT NOT NULL,
		kind INTEGER NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		preview_url TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (remote, path, position)
	);

	CREATE INDEX IF NOT EXISTS idx_listings_time ON listings(remote, listed_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveListing replaces the snapshot of remote:path with entries
func (s *Store) SaveListing(remote, path string, entries []*domain.Entry, listedAt time.Time) error {
	if remote == "" {
		return fmt.Errorf("remote key cannot be empty")
	}
	path = domain.DirPath(path)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM listing_entries WHERE remote = ? AND path = ?`, remote, path); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO listings (remote, path, listed_at) VALUES (?, ?, ?)`,
		remote, path, listedAt.UnixMicro()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO listing_entries
			(remote, path, position, name, entry_path, kind, size, mod_time, content_type, preview_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(remote, path, i, e.Name, e.Path, int(e.Kind), e.Size,
			e.ModTime.UnixMicro(), e.ContentType, e.PreviewURL); err != nil {
			return fmt.Errorf("failed to save entry %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadListing returns the snapshot of remote:path, or nil when none exists
func (s *Store) LoadListing(remote, path string) (*Snapshot, error) {
	path = domain.DirPath(path)

	snap := &Snapshot{Remote: remote, Path: path}
	var listedAt int64
	err := s.db.QueryRow(`SELECT listed_at FROM listings WHERE remote = ? AND path = ?`, remote, path).
		Scan(&listedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	snap.ListedAt = fromMicros(listedAt)

	rows, err := s.db.Query(`
		SELECT name, entry_path, kind, size, mod_time, content_type, preview_url
		FROM listing_entries
		WHERE remote = ? AND path = ?
		ORDER BY position
	`, remote, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, entryPath, contentType, previewURL string
			kind                                     int
			size                                     int64
			modTime                                  int64
		)
		if err := rows.Scan(&name, &entryPath, &kind, &size, &modTime, &contentType, &previewURL); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e := domain.NewEntry(name, entryPath, domain.EntryKind(kind), size, fromMicros(modTime))
		e.ContentType = contentType
		e.PreviewURL = previewURL
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return snap, nil
}

// RecentListings returns the most recently stored snapshots of remote
func (s *Store) RecentListings(remote string, limit int) ([]ListingInfo, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.db.Query(`
		SELECT l.path, l.listed_at, COUNT(e.position)
		FROM listings l
		LEFT JOIN listing_entries e ON e.remote = l.remote AND e.path = l.path
		WHERE l.remote = ?
		GROUP BY l.remote, l.path
		ORDER BY l.listed_at DESC
		LIMIT ?
	`, remote, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var out []ListingInfo
	for rows.Next() {
		var info ListingInfo
		var listedAt int64
		if err := rows.Scan(&info.Path, &listedAt, &info.Count); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		info.ListedAt = fromMicros(listedAt)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return out, nil
}

// Prune deletes snapshots listed before cutoff and returns how many were removed
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM listing_entries WHERE (remote, path) IN
			(SELECT remote, path FROM listings WHERE listed_at < ?)
	`, cutoff.UnixMicro()); err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM listings WHERE listed_at < ?`, cutoff.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("failed to prune listings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
