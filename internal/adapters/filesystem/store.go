// Package filesystem implements the note-tree ports against a directory of
// markdown files.
package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/ports"
)

// Store implements ports.NoteStore over a root directory. Note paths are
// slash-separated and relative to the root.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory. A leading ~ is
// expanded to the user's home directory.
func NewStore(root string) *Store {
	if strings.HasPrefix(root, "~") {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, root[1:])
	}
	return &Store{root: root}
}

// Root returns the expanded root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// List enumerates every markdown file under the root, skipping hidden
// directories. Paths come back sorted so discovery order is stable.
func (s *Store) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable subtrees
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate notes under %s: %w", s.root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Stat returns the change stamp for a note. The filesystem has no edit
// counter, so the file size stands in as the version component alongside the
// modification time.
func (s *Store) Stat(path string) (ports.FileInfo, error) {
	info, err := os.Stat(s.abs(path))
	if err != nil {
		return ports.FileInfo{}, fmt.Errorf("stat note %s: %w", path, err)
	}
	return ports.FileInfo{Version: info.Size(), ModTime: info.ModTime()}, nil
}

// Read returns the note's lines plus the stamp the content was read at.
func (s *Store) Read(path string) (ports.Note, error) {
	abs := s.abs(path)
	content, err := os.ReadFile(abs)
	if err != nil {
		return ports.Note{}, fmt.Errorf("read note %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return ports.Note{}, fmt.Errorf("stat note %s: %w", path, err)
	}
	return ports.Note{
		Path:  path,
		Lines: strings.Split(string(content), "\n"),
		Info:  ports.FileInfo{Version: info.Size(), ModTime: info.ModTime()},
	}, nil
}

// Apply applies a batch of line edits and persists the result atomically via
// a temp-file rename. Unedited lines are carried over byte for byte.
func (s *Store) Apply(path string, edits []domain.LineEdit) error {
	note, err := s.Read(path)
	if err != nil {
		return err
	}
	lines, err := domain.ApplyEdits(note.Lines, edits)
	if err != nil {
		return fmt.Errorf("apply edits to %s: %w", path, err)
	}
	if err := atomicWrite(s.abs(path), strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("write note %s: %w", path, err)
	}
	return nil
}

// atomicWrite writes content to a file via a temp file rename.
func atomicWrite(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
