package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/scancache"
)

// ListTasksCommand serves the open-task list for the CLI, TUI and MCP
// surfaces.
type ListTasksCommand struct {
	cache *scancache.Cache
	clock func() time.Time
}

// NewListTasksCommand wires the listing use case.
func NewListTasksCommand(cache *scancache.Cache, clock func() time.Time) *ListTasksCommand {
	if clock == nil {
		clock = time.Now
	}
	return &ListTasksCommand{cache: cache, clock: clock}
}

// Execute returns open tasks sorted for presentation: priority descending,
// then due date ascending. With dueOnly set, only tasks due today or earlier
// are included.
func (c *ListTasksCommand) Execute(ctx context.Context, dueOnly bool) ([]domain.Task, error) {
	tasks, err := c.cache.OpenTasks(ctx)
	if err != nil {
		return nil, err
	}
	if dueOnly {
		today := domain.DateOf(c.clock())
		filtered := tasks[:0]
		for _, t := range tasks {
			d, err := t.DueDate()
			if err != nil {
				continue
			}
			if !d.After(today) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	domain.SortTasks(tasks)
	return tasks, nil
}

// FormatTasks renders tasks as a plain-text listing, one task per line.
func FormatTasks(tasks []domain.Task) string {
	if len(tasks) == 0 {
		return "No open tasks.\n"
	}
	var sb strings.Builder
	for _, t := range tasks {
		due := t.Due
		if d, err := t.DueDate(); err == nil {
			due = d.ISO()
		}
		fmt.Fprintf(&sb, "p%d d%d  %s  %s  (%s:%d)\n", t.Priority, t.Difficulty, due, t.Text, t.File, t.Line+1)
	}
	return sb.String()
}
