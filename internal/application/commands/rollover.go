package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NathanJKW/calmdown/internal/application"
	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/ports"
	"github.com/NathanJKW/calmdown/internal/scancache"
)

// DefaultHeading is the section heading rolled-over tasks are filed under in
// the day's note.
const DefaultHeading = "# Rolled Over"

// RolloverCommand migrates unfinished past-due tasks into today's note and
// marks every original line with the terminal ROLLED keyword.
type RolloverCommand struct {
	cache   *scancache.Cache
	store   ports.NoteStore
	daily   ports.DailyNotes
	notify  ports.Notifier
	clock   func() time.Time
	heading string
}

// NewRolloverCommand wires the orchestrator with its collaborators. A zero
// heading falls back to DefaultHeading.
func NewRolloverCommand(cache *scancache.Cache, store ports.NoteStore, daily ports.DailyNotes, notify ports.Notifier, clock func() time.Time, heading string) *RolloverCommand {
	if heading == "" {
		heading = DefaultHeading
	}
	if clock == nil {
		clock = time.Now
	}
	return &RolloverCommand{
		cache:   cache,
		store:   store,
		daily:   daily,
		notify:  notify,
		clock:   clock,
		heading: heading,
	}
}

// RolloverResult reports what one invocation did. When Failed is non-empty
// the operation committed partially: Updated names the files that were
// persisted, Failed the ones that were not. Already-committed writes are
// never rolled back.
type RolloverResult struct {
	Target  string
	Rolled  int
	Skipped int // tasks with unparsable due dates
	Stale   int // tasks whose source line changed between scan and rewrite
	Updated []string
	Failed  []application.FileError
}

// Execute runs Discover, CreateTarget, Insert, MarkSources and Commit. Once
// source rewriting has begun for a file, that file runs to completion even if
// ctx is cancelled; cancellation is honored between files.
func (c *RolloverCommand) Execute(ctx context.Context) (*RolloverResult, error) {
	today := domain.DateOf(c.clock())
	result := &RolloverResult{}

	// Discover: open tasks due today or earlier. The comparison is on the
	// task's own due-date field, never on note filenames.
	open, err := c.cache.OpenTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover open tasks: %w", err)
	}
	var due []domain.Task
	for _, t := range open {
		d, err := t.DueDate()
		if err != nil {
			result.Skipped++
			continue
		}
		if !d.After(today) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		c.info("no tasks due for rollover")
		return result, nil
	}

	// CreateTarget: today's note must exist before anything is rewritten.
	target, err := c.daily.Ensure(today)
	if err != nil {
		return nil, fmt.Errorf("ensure today's note: %w", err)
	}
	result.Target = target

	// Verify every discovered line against a fresh read of its file. A task
	// is only safe to rewrite while its line still holds the exact marker the
	// scan produced; anything else is stale and skipped.
	bySource := groupBySource(due)
	buffers := make(map[string][]string)
	verified := make(map[string][]domain.Task)
	for _, path := range sourcePaths(bySource) {
		note, err := c.store.Read(path)
		if err != nil {
			result.Stale += len(bySource[path])
			c.warn(fmt.Sprintf("skipping %s: %v", path, err))
			continue
		}
		buffers[path] = note.Lines
		for _, t := range bySource[path] {
			if lineMatchesTask(note.Lines, t) {
				verified[path] = append(verified[path], t)
			} else {
				result.Stale++
			}
		}
	}

	// Insert: one ordered batch of line insertions into today's note, in
	// discovery order.
	targetLines := buffers[target]
	if targetLines == nil {
		note, err := c.store.Read(target)
		if err != nil {
			return nil, fmt.Errorf("read today's note: %w", err)
		}
		targetLines = note.Lines
	}
	var markers []string
	for _, path := range sourcePaths(verified) {
		for _, t := range verified[path] {
			markers = append(markers, t.Marker())
		}
	}
	if len(markers) == 0 {
		c.info("nothing to roll over after verification")
		return result, nil
	}
	insertEdits := buildInsertEdits(targetLines, c.heading, markers)

	// MarkSources: within each file, rewrite strictly in descending line
	// order so no replacement can shift a not-yet-processed line.
	editsByFile := make(map[string][]domain.LineEdit)
	for path, tasks := range verified {
		sorted := make([]domain.Task, len(tasks))
		copy(sorted, tasks)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Line > sorted[j].Line })
		for _, t := range sorted {
			line := buffers[path][t.Line]
			rolled, ok := domain.RollLine(line)
			if !ok {
				result.Stale++
				continue
			}
			editsByFile[path] = append(editsByFile[path], domain.Replace(t.Line, rolled))
		}
	}

	// The target's own replacements must run before the insertion batch;
	// replacements never shift lines, insertions do.
	editsByFile[target] = append(editsByFile[target], insertEdits...)

	// Commit: target note first, then each source file. A source failure is
	// recorded and the remaining files still commit.
	if err := c.store.Apply(target, editsByFile[target]); err != nil {
		result.Failed = append(result.Failed, application.FileError{Path: target, Err: err})
		return result, fmt.Errorf("write today's note: %w", err)
	}
	result.Updated = append(result.Updated, target)
	c.cache.Invalidate(target)
	delete(editsByFile, target)

	for _, path := range sourcePaths(editsByFile) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := c.store.Apply(path, editsByFile[path]); err != nil {
			result.Failed = append(result.Failed, application.FileError{Path: path, Err: err})
			continue
		}
		result.Updated = append(result.Updated, path)
		c.cache.Invalidate(path)
	}

	result.Rolled = len(markers)
	if len(result.Failed) > 0 {
		var names []string
		for _, fe := range result.Failed {
			names = append(names, fe.Path)
		}
		c.warn(fmt.Sprintf("rolled %d tasks into %s, but could not update: %s",
			result.Rolled, target, strings.Join(names, ", ")))
		return result, fmt.Errorf("%w: %s", application.ErrPartialRoll, strings.Join(names, ", "))
	}

	c.info(fmt.Sprintf("rolled %d tasks into %s", result.Rolled, target))
	return result, nil
}

func (c *RolloverCommand) info(msg string) {
	if c.notify != nil {
		c.notify.Info(msg)
	}
}

func (c *RolloverCommand) warn(msg string) {
	if c.notify != nil {
		c.notify.Warn(msg)
	}
}

// lineMatchesTask reports whether the line a task was parsed from still holds
// the same open marker.
func lineMatchesTask(lines []string, t domain.Task) bool {
	if t.Line < 0 || t.Line >= len(lines) {
		return false
	}
	current, ok := domain.ParseMarker(t.File, t.Line, lines[t.Line])
	if !ok {
		return false
	}
	return current == t
}

func groupBySource(tasks []domain.Task) map[string][]domain.Task {
	grouped := make(map[string][]domain.Task)
	for _, t := range tasks {
		grouped[t.File] = append(grouped[t.File], t)
	}
	return grouped
}

func sourcePaths[V any](m map[string]V) []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// buildInsertEdits locates the insertion point in the target note and emits
// the ordered insert batch: the section heading plus a blank line when the
// section does not exist yet, then one marker line per task.
func buildInsertEdits(lines []string, heading string, markers []string) []domain.LineEdit {
	at, needHeading := insertionPoint(lines, heading)

	var edits []domain.LineEdit
	if needHeading {
		edits = append(edits, domain.Insert(at, heading))
		at++
		edits = append(edits, domain.Insert(at, ""))
		at++
	}
	for _, m := range markers {
		edits = append(edits, domain.Insert(at, m))
		at++
	}
	return edits
}

// insertionPoint picks where rolled markers go:
//
//  1. the rollover section already exists: immediately before the next
//     top-level heading after it, or end-of-file if none follows
//  2. no section, but some top-level heading exists: after the first blank
//     line following that heading (directly after the heading when the file
//     has no blank line), creating the section there
//  3. otherwise: end-of-file, creating the section there
//
// An end-of-file cursor steps back over a final empty line so the inserted
// block lands before the file's trailing newline.
func insertionPoint(lines []string, heading string) (at int, needHeading bool) {
	section := -1
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == heading {
			section = i
			break
		}
	}

	if section >= 0 {
		for i := section + 1; i < len(lines); i++ {
			if isTopHeading(lines[i]) {
				return i, false
			}
		}
		return eofCursor(lines), false
	}

	for i, line := range lines {
		if !isTopHeading(line) {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				if j+1 >= len(lines) {
					return eofCursor(lines), true
				}
				return j + 1, true
			}
		}
		return i + 1, true
	}

	return eofCursor(lines), true
}

func eofCursor(lines []string) int {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return n - 1
	}
	return len(lines)
}

func isTopHeading(line string) bool {
	return strings.HasPrefix(line, "# ")
}
