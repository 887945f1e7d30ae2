package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/NathanJKW/calmdown/internal/adapters/filesystem"
	"github.com/NathanJKW/calmdown/internal/application"
	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/ports"
	"github.com/NathanJKW/calmdown/internal/scancache"
)

// Tests run against a fixed "today" of Monday 2024-01-15 (ISO week 3).
func testClock() time.Time {
	return time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
}

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNote(t *testing.T, root, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(content)
}

func newFixture(t *testing.T) (string, *filesystem.Store, *filesystem.Daily, *scancache.Cache) {
	t.Helper()
	root := t.TempDir()
	store := filesystem.NewStore(root)
	daily := filesystem.NewDaily(store)
	cache := scancache.New(store, scancache.WithClock(testClock))
	return root, store, daily, cache
}

func TestRollover_MovesDueTasksIntoToday(t *testing.T) {
	root, store, daily, cache := newFixture(t)

	writeNote(t, root, "2024/W01/2024-01-01.md",
		"# Monday, 01 January 2024\n\n-=TODO 2 1 240101=-water plants\n-=TODO 1 1 300101=-far future\n")
	writeNote(t, root, "2024/W02/2024-01-08.md",
		"-=TODO 1 1 991231=-ancient task\n")

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "")
	result, err := roll.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Target != "2024/W03/2024-01-15.md" {
		t.Errorf("target = %q", result.Target)
	}
	// The far-future task stays put; the 1999 date counts as past-due.
	if result.Rolled != 2 {
		t.Errorf("rolled = %d, want 2", result.Rolled)
	}
	if result.Stale != 0 || result.Skipped != 0 || len(result.Failed) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	target := readNote(t, root, result.Target)
	want := "# Monday, 15 January 2024\n" +
		"# Rolled Over\n\n" +
		"-=TODO 2 1 240101=-water plants\n" +
		"-=TODO 1 1 991231=-ancient task\n"
	if target != want {
		t.Errorf("target note:\n%q\nwant:\n%q", target, want)
	}

	src := readNote(t, root, "2024/W01/2024-01-01.md")
	if !strings.Contains(src, "-=ROLLED 2 1 240101=-water plants") {
		t.Errorf("source not marked rolled:\n%q", src)
	}
	if !strings.Contains(src, "-=TODO 1 1 300101=-far future") {
		t.Errorf("future task touched:\n%q", src)
	}
	if src2 := readNote(t, root, "2024/W02/2024-01-08.md"); !strings.Contains(src2, "-=ROLLED 1 1 991231=-ancient task") {
		t.Errorf("second source not marked rolled:\n%q", src2)
	}

	// A rolled marker is no longer open, so the listing shows only the
	// rolled-forward copies plus the untouched future task.
	tasks, err := cache.OpenTasks(context.Background())
	if err != nil {
		t.Fatalf("OpenTasks failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("got %d open tasks after rollover, want 3", len(tasks))
	}
}

func TestRollover_ManyTasksInOneFileRewrittenInPlace(t *testing.T) {
	root, store, daily, cache := newFixture(t)

	// Due tasks on lines 2, 5 and 9 with prose between them: one MarkSources
	// batch must rewrite each marker on its own line and shift nothing.
	// Replace edits are index-stable regardless of order, so the descending
	// sort can only be observed as every address still landing correctly.
	lines := []string{
		"# Monday, 01 January 2024",
		"prose one",
		"-=TODO 3 1 240101=-first",
		"prose two",
		"prose three",
		"-=TODO 2 1 240102=-second",
		"prose four",
		"prose five",
		"prose six",
		"-=TODO 1 1 240103=-third",
		"",
	}
	writeNote(t, root, "2024/W01/2024-01-01.md", strings.Join(lines, "\n"))

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "")
	result, err := roll.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Rolled != 3 || result.Stale != 0 {
		t.Fatalf("result = %+v, want 3 rolled, 0 stale", result)
	}

	got := strings.Split(readNote(t, root, "2024/W01/2024-01-01.md"), "\n")
	if len(got) != len(lines) {
		t.Fatalf("line count changed: %d → %d", len(lines), len(got))
	}
	want := map[int]string{
		2: "-=ROLLED 3 1 240101=-first",
		5: "-=ROLLED 2 1 240102=-second",
		9: "-=ROLLED 1 1 240103=-third",
	}
	for i, line := range got {
		if w, ok := want[i]; ok {
			if line != w {
				t.Errorf("line %d = %q, want %q", i, line, w)
			}
		} else if line != lines[i] {
			t.Errorf("line %d changed: %q → %q", i, lines[i], line)
		}
	}

	// All three markers land in today's note in line order.
	target := readNote(t, root, result.Target)
	first := strings.Index(target, "-=TODO 3 1 240101=-first")
	second := strings.Index(target, "-=TODO 2 1 240102=-second")
	third := strings.Index(target, "-=TODO 1 1 240103=-third")
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("markers missing from target:\n%q", target)
	}
	if !(first < second && second < third) {
		t.Errorf("markers out of discovery order:\n%q", target)
	}
}

func TestRollover_NothingDue(t *testing.T) {
	root, store, daily, cache := newFixture(t)
	writeNote(t, root, "2024/W01/2024-01-01.md", "-=TODO 1 1 300101=-far future\n")

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "")
	result, err := roll.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Rolled != 0 || result.Target != "" {
		t.Errorf("result = %+v, want untouched", result)
	}
	// The target note must not have been created.
	if _, err := os.Stat(filepath.Join(root, "2024/W03/2024-01-15.md")); !os.IsNotExist(err) {
		t.Error("today's note created with nothing due")
	}
}

func TestRollover_AppendsToExistingSection(t *testing.T) {
	root, store, daily, cache := newFixture(t)

	writeNote(t, root, "2024/W01/2024-01-01.md", "-=TODO 1 1 240101=-late task\n")
	writeNote(t, root, "2024/W03/2024-01-15.md",
		"# Monday, 15 January 2024\n\n# Rolled Over\n\n-=TODO 3 1 300110=-already here\n\n# Notes\n\nprose\n")

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "")
	result, err := roll.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	target := readNote(t, root, result.Target)
	if !strings.Contains(target, "-=TODO 3 1 300110=-already here") {
		t.Fatalf("pre-existing section task was rewritten:\n%q", target)
	}
	// The new marker lands inside the existing section, before "# Notes".
	sectionEnd := strings.Index(target, "# Notes")
	newMarker := strings.Index(target, "-=TODO 1 1 240101=-late task")
	if newMarker < 0 || newMarker > sectionEnd {
		t.Errorf("marker not inside the rollover section:\n%q", target)
	}
	if strings.Count(target, "# Rolled Over") != 1 {
		t.Errorf("section heading duplicated:\n%q", target)
	}
}

func TestRollover_TargetIsAlsoASource(t *testing.T) {
	root, store, daily, cache := newFixture(t)

	// Today's note already exists and holds a past-due task of its own.
	writeNote(t, root, "2024/W03/2024-01-15.md",
		"# Monday, 15 January 2024\n\n-=TODO 2 1 240110=-carried by hand\n")

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "")
	result, err := roll.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Rolled != 1 {
		t.Fatalf("rolled = %d, want 1", result.Rolled)
	}

	target := readNote(t, root, result.Target)
	if !strings.Contains(target, "-=ROLLED 2 1 240110=-carried by hand") {
		t.Errorf("original line not marked rolled:\n%q", target)
	}
	if !strings.Contains(target, "-=TODO 2 1 240110=-carried by hand") {
		t.Errorf("rolled-forward copy missing:\n%q", target)
	}
}

func TestRollover_StaleLinesLeftUntouched(t *testing.T) {
	root, store, daily, cache := newFixture(t)
	writeNote(t, root, "2024/W01/2024-01-01.md", "-=TODO 1 1 240101=-about to change\n")

	// Warm the cache, then edit the file behind its back inside the
	// staleness window so discovery serves the outdated line.
	if _, err := cache.OpenTasks(context.Background()); err != nil {
		t.Fatalf("OpenTasks failed: %v", err)
	}
	writeNote(t, root, "2024/W01/2024-01-01.md", "the task is gone now\n")

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "")
	result, err := roll.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Stale != 1 || result.Rolled != 0 {
		t.Errorf("result = %+v, want 1 stale, 0 rolled", result)
	}
	if got := readNote(t, root, "2024/W01/2024-01-01.md"); got != "the task is gone now\n" {
		t.Errorf("stale file rewritten:\n%q", got)
	}
}

// failingStore passes through to the real store except for Apply on one path.
type failingStore struct {
	ports.NoteStore
	failPath string
}

func (s *failingStore) Apply(path string, edits []domain.LineEdit) error {
	if path == s.failPath {
		return errors.New("disk full")
	}
	return s.NoteStore.Apply(path, edits)
}

func TestRollover_PartialCommitReported(t *testing.T) {
	root := t.TempDir()
	fs := filesystem.NewStore(root)
	store := &failingStore{NoteStore: fs, failPath: "2024/W01/2024-01-01.md"}
	daily := filesystem.NewDaily(fs)
	cache := scancache.New(store, scancache.WithClock(testClock))

	writeNote(t, root, "2024/W01/2024-01-01.md", "-=TODO 1 1 240101=-unlucky\n")
	writeNote(t, root, "2024/W02/2024-01-08.md", "-=TODO 1 1 240108=-lucky\n")

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "")
	result, err := roll.Execute(context.Background())
	if !errors.Is(err, application.ErrPartialRoll) {
		t.Fatalf("err = %v, want ErrPartialRoll", err)
	}

	if len(result.Failed) != 1 || result.Failed[0].Path != "2024/W01/2024-01-01.md" {
		t.Errorf("failed = %v", result.Failed)
	}
	// Both markers landed in the target before the source failure, and the
	// healthy source still committed.
	if !slices.Contains(result.Updated, result.Target) {
		t.Error("target missing from updated list")
	}
	if !slices.Contains(result.Updated, "2024/W02/2024-01-08.md") {
		t.Error("healthy source missing from updated list")
	}
	if got := readNote(t, root, "2024/W02/2024-01-08.md"); !strings.Contains(got, "-=ROLLED") {
		t.Errorf("healthy source not rewritten:\n%q", got)
	}
	if got := readNote(t, root, "2024/W01/2024-01-01.md"); strings.Contains(got, "-=ROLLED") {
		t.Errorf("failed source was rewritten:\n%q", got)
	}
}

func TestRollover_CustomHeading(t *testing.T) {
	root, store, daily, cache := newFixture(t)
	writeNote(t, root, "2024/W01/2024-01-01.md", "-=TODO 1 1 240101=-task\n")

	roll := NewRolloverCommand(cache, store, daily, nil, testClock, "# Carried Forward")
	result, err := roll.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := readNote(t, root, result.Target); !strings.Contains(got, "# Carried Forward") {
		t.Errorf("custom heading missing:\n%q", got)
	}
}

func TestInsertionPoint(t *testing.T) {
	heading := "# Rolled Over"

	tests := []struct {
		name        string
		lines       []string
		wantAt      int
		wantHeading bool
	}{
		{
			name:        "empty file",
			lines:       []string{""},
			wantAt:      0,
			wantHeading: true,
		},
		{
			name:        "no headings",
			lines:       []string{"just prose", "more prose", ""},
			wantAt:      2,
			wantHeading: true,
		},
		{
			name:        "title then blank then body",
			lines:       []string{"# Title", "", "body", ""},
			wantAt:      2,
			wantHeading: true,
		},
		{
			name:        "title without blank line",
			lines:       []string{"# Title", "body"},
			wantAt:      1,
			wantHeading: true,
		},
		{
			name:        "existing section runs to EOF",
			lines:       []string{"# Title", "", "# Rolled Over", "", "-=TODO 1 1 240101=-x", ""},
			wantAt:      5,
			wantHeading: false,
		},
		{
			name:        "existing section bounded by next heading",
			lines:       []string{"# Rolled Over", "", "-=TODO 1 1 240101=-x", "# Notes", "prose"},
			wantAt:      3,
			wantHeading: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, needHeading := insertionPoint(tt.lines, heading)
			if at != tt.wantAt || needHeading != tt.wantHeading {
				t.Errorf("insertionPoint = (%d, %v), want (%d, %v)", at, needHeading, tt.wantAt, tt.wantHeading)
			}
		})
	}
}
