package commands

import (
	"fmt"
	"time"

	"github.com/NathanJKW/calmdown/internal/application"
	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/ports"
	"github.com/NathanJKW/calmdown/internal/scancache"
)

// ToggleCommand flips the task state of a single note line: open markers
// complete, completed markers reopen, plain text becomes a fresh task.
type ToggleCommand struct {
	cache *scancache.Cache
	store ports.NoteStore
	clock func() time.Time
}

// NewToggleCommand wires the toggle use case.
func NewToggleCommand(cache *scancache.Cache, store ports.NoteStore, clock func() time.Time) *ToggleCommand {
	if clock == nil {
		clock = time.Now
	}
	return &ToggleCommand{cache: cache, store: store, clock: clock}
}

// ToggleResult reports the line replacement that was persisted.
type ToggleResult struct {
	Path string
	Line int
	Old  string
	New  string
}

// Execute toggles the zero-based line of a note and persists the change.
// Reopening a completed task restores the note's own date as the task date;
// for notes without a date-shaped name, today stands in.
func (c *ToggleCommand) Execute(path string, line int) (*ToggleResult, error) {
	note, err := c.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read note %s: %w", path, err)
	}
	if line < 0 || line >= len(note.Lines) {
		return nil, &application.ValidationError{
			Field:   "line",
			Message: fmt.Sprintf("line %d outside note of %d lines", line, len(note.Lines)),
		}
	}

	today := domain.DateOf(c.clock())
	created, ok := domain.NoteDate(path)
	if !ok {
		created = today
	}

	old := note.Lines[line]
	toggled := domain.ToggleLine(old, today, created)
	if toggled == old {
		return &ToggleResult{Path: path, Line: line, Old: old, New: toggled}, nil
	}

	if err := c.store.Apply(path, []domain.LineEdit{domain.Replace(line, toggled)}); err != nil {
		return nil, fmt.Errorf("write note %s: %w", path, err)
	}
	c.cache.Invalidate(path)

	return &ToggleResult{Path: path, Line: line, Old: old, New: toggled}, nil
}
