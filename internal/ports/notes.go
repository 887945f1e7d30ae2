package ports

import (
	"time"

	"github.com/NathanJKW/calmdown/internal/domain"
)

// FileInfo carries the change-detection stamp for a note file. Version is a
// monotonic edit counter; together with ModTime it decides whether a cached
// parse of the file is still valid.
type FileInfo struct {
	Version int64
	ModTime time.Time
}

// Note is a fully read note file: its identifier, line buffer, and the stamp
// the content was read at.
type Note struct {
	Path  string
	Lines []string
	Info  FileInfo
}

// NoteStore is the file-tree collaborator the scan cache and rollover operate
// against. Paths are identifiers relative to the store's root.
type NoteStore interface {
	// List enumerates all markdown note files under the root.
	List() ([]string, error)

	// Stat returns the current stamp for a note. A missing file is an error.
	Stat(path string) (FileInfo, error)

	// Read returns the note's full text split into lines plus its stamp.
	Read(path string) (Note, error)

	// Apply applies a batch of targeted line edits to a note and persists
	// it without rewriting unrelated content semantics (the final buffer is
	// written atomically).
	Apply(path string, edits []domain.LineEdit) error
}

// DailyNotes derives and creates date-addressed journal notes.
type DailyNotes interface {
	// PathFor returns the deterministic note path for a date.
	PathFor(date domain.Date) string

	// Ensure guarantees the note for a date exists and returns its path.
	Ensure(date domain.Date) (string, error)
}

// Notifier reports progress and outcomes to the user. It is advisory only;
// no operation's correctness may depend on a notification being delivered.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// EntryStore persists scan-cache entries between processes so a fresh
// invocation can skip re-parsing files whose stamps still match.
type EntryStore interface {
	// LoadAll returns every persisted entry keyed by note path.
	LoadAll() (map[string]CachedEntry, error)

	// Put replaces the persisted entry for one note.
	Put(path string, entry CachedEntry) error

	// Delete removes the persisted entry for one note.
	Delete(path string) error

	Close() error
}

// CachedEntry is the persisted form of one file's parse results.
type CachedEntry struct {
	Tasks []domain.Task
	Info  FileInfo
}
