// Package mcp exposes the task system over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NathanJKW/calmdown/internal/application/commands"
	"github.com/NathanJKW/calmdown/internal/domain"
	"github.com/NathanJKW/calmdown/internal/ports"
)

// RegisterReadTools adds all read-only task tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, list *commands.ListTasksCommand, store ports.NoteStore, daily ports.DailyNotes, clock func() time.Time) {
	s.AddTool(openTasksTool(), openTasksHandler(list))
	s.AddTool(todayNoteTool(), todayNoteHandler(store, daily, clock))
}

// --- open_tasks ---

func openTasksTool() mcp.Tool {
	return mcp.NewTool("open_tasks",
		mcp.WithDescription("List open tasks (TODO markers) across all daily notes, sorted by priority then due date."),
		mcp.WithBoolean("due_only",
			mcp.Description("Only include tasks due today or earlier."),
		),
	)
}

func openTasksHandler(list *commands.ListTasksCommand) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dueOnly := req.GetBool("due_only", false)

		tasks, err := list.Execute(ctx, dueOnly)
		if err != nil {
			return toolError(err)
		}
		if len(tasks) == 0 {
			return mcp.NewToolResultText("No open tasks."), nil
		}

		var sb strings.Builder
		for _, t := range tasks {
			sb.WriteString(formatTask(t))
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- today_note ---

func todayNoteTool() mcp.Tool {
	return mcp.NewTool("today_note",
		mcp.WithDescription("Return the path and contents of today's daily note, creating it if missing."),
	)
}

func todayNoteHandler(store ports.NoteStore, daily ports.DailyNotes, clock func() time.Time) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		today := domain.DateOf(clock())
		path, err := daily.Ensure(today)
		if err != nil {
			return toolError(err)
		}
		note, err := store.Read(path)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", path, strings.Join(note.Lines, "\n"))), nil
	}
}

func formatTask(t domain.Task) string {
	due := t.Due
	if d, err := t.DueDate(); err == nil {
		due = d.ISO()
	}
	return fmt.Sprintf("[%s] p%d d%d due %s  %s  (%s:%d)", t.Status, t.Priority, t.Difficulty, due, t.Text, t.File, t.Line+1)
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
