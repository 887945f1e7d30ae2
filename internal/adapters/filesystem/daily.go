package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NathanJKW/calmdown/internal/domain"
)

// Daily implements ports.DailyNotes: one note per calendar day, filed under
// year and ISO week (week 1 contains the year's first Thursday), e.g.
// 2024/W03/2024-01-15.md.
type Daily struct {
	store *Store
}

// NewDaily creates a daily-note provider over a note store.
func NewDaily(store *Store) *Daily {
	return &Daily{store: store}
}

// PathFor returns the deterministic store-relative path for a date's note.
func (d *Daily) PathFor(date domain.Date) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%04d/W%02d/%s.md", year, week, date.ISO())
}

// Ensure guarantees the note for a date exists, creating it with a heading
// skeleton when missing, and returns its store-relative path.
func (d *Daily) Ensure(date domain.Date) (string, error) {
	rel := d.PathFor(date)
	abs := d.store.abs(rel)

	if _, err := os.Stat(abs); err == nil {
		return rel, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat daily note %s: %w", rel, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create daily note directory for %s: %w", rel, err)
	}
	skeleton := fmt.Sprintf("# %s\n", date.Time().Format("Monday, 02 January 2006"))
	if err := atomicWrite(abs, skeleton); err != nil {
		return "", fmt.Errorf("create daily note %s: %w", rel, err)
	}
	return rel, nil
}
