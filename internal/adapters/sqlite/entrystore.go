// Package sqlite persists scan-cache entries so separate invocations share
// parse work.
package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/ports"
)

const schemaVersion = "1"

// EntryStore implements ports.EntryStore on a local SQLite file. A stored
// entry is only a mirror: the scan cache re-verifies every stamp against the
// filesystem before serving it.
type EntryStore struct {
	db *sql.DB
}

var _ ports.EntryStore = (*EntryStore)(nil)

// Open opens (or creates) the store at dbPath, scoped to a note root. A
// schema change or a different root drops all persisted entries.
func Open(dbPath, root string) (*EntryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			mtime INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tasks (
			path TEXT NOT NULL,
			line INTEGER NOT NULL,
			status TEXT NOT NULL,
			priority INTEGER NOT NULL,
			difficulty INTEGER NOT NULL,
			due TEXT NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (path, line)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setup index database: %w", err)
	}

	s := &EntryStore{db: db}
	if s.needsReset(root) {
		if err := s.reset(root); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *EntryStore) Close() error {
	return s.db.Close()
}

func (s *EntryStore) needsReset(root string) bool {
	var version, rootHash string
	s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	s.db.QueryRow(`SELECT value FROM meta WHERE key = 'root_hash'`).Scan(&rootHash)
	return version != schemaVersion || rootHash != hashRoot(root)
}

func (s *EntryStore) reset(root string) error {
	_, err := s.db.Exec(`
		DELETE FROM files;
		DELETE FROM tasks;
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?);
	`, schemaVersion)
	if err != nil {
		return fmt.Errorf("reset index database: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('root_hash', ?)`, hashRoot(root))
	if err != nil {
		return fmt.Errorf("reset index database: %w", err)
	}
	return nil
}

// LoadAll returns every persisted entry keyed by note path.
func (s *EntryStore) LoadAll() (map[string]ports.CachedEntry, error) {
	entries := make(map[string]ports.CachedEntry)

	rows, err := s.db.Query(`SELECT path, version, mtime FROM files`)
	if err != nil {
		return nil, fmt.Errorf("load index files: %w", err)
	}
	for rows.Next() {
		var path string
		var version, mtime int64
		if err := rows.Scan(&path, &version, &mtime); err != nil {
			rows.Close()
			return nil, err
		}
		entries[path] = ports.CachedEntry{
			Info: ports.FileInfo{Version: version, ModTime: time.Unix(0, mtime)},
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT path, line, status, priority, difficulty, due, text FROM tasks ORDER BY path, line`)
	if err != nil {
		return nil, fmt.Errorf("load index tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t domain.Task
		var status string
		if err := rows.Scan(&t.File, &t.Line, &status, &t.Priority, &t.Difficulty, &t.Due, &t.Text); err != nil {
			return nil, err
		}
		t.Status = domain.ParseStatus(status)
		e, ok := entries[t.File]
		if !ok {
			continue // task row without a file row; ignore
		}
		e.Tasks = append(e.Tasks, t)
		entries[t.File] = e
	}
	return entries, rows.Err()
}

// Put replaces the persisted entry for one note atomically.
func (s *EntryStore) Put(path string, entry ports.CachedEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO files (path, version, mtime) VALUES (?, ?, ?)`,
		path, entry.Info.Version, entry.Info.ModTime.UnixNano()); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM tasks WHERE path = ?`, path); err != nil {
		return err
	}
	for _, t := range entry.Tasks {
		if _, err := tx.Exec(`INSERT INTO tasks (path, line, status, priority, difficulty, due, text) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			path, t.Line, t.Status.String(), t.Priority, t.Difficulty, t.Due, t.Text); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes the persisted entry for one note.
func (s *EntryStore) Delete(path string) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM tasks WHERE path = ?`, path)
	return err
}

// hashRoot returns a short hash of the note root path.
func hashRoot(root string) string {
	h := sha256.Sum256([]byte(root))
	return hex.EncodeToString(h[:8])
}
