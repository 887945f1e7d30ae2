package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NathanJKW/calmdown/internal/application/commands"
)

// RegisterWriteTools adds all mutating task tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, toggle *commands.ToggleCommand, rollover *commands.RolloverCommand) {
	s.AddTool(toggleTool(), toggleHandler(toggle))
	s.AddTool(rolloverTool(), rolloverHandler(rollover))
}

// --- toggle_task ---

func toggleTool() mcp.Tool {
	return mcp.NewTool("toggle_task",
		mcp.WithDescription("Toggle the task state of a note line: TODO becomes COMPLETE, COMPLETE reopens as TODO, plain text becomes a new TODO. Lines are one-based."),
		mcp.WithString("path",
			mcp.Description("Note path relative to the journal root (e.g. 2026/W35/2026-08-29.md)"),
			mcp.Required(),
		),
		mcp.WithNumber("line",
			mcp.Description("One-based line number to toggle"),
			mcp.Required(),
		),
	)
}

func toggleHandler(toggle *commands.ToggleCommand) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		line := req.GetInt("line", 0)
		if line < 1 {
			return toolError(fmt.Errorf("line must be one-based and positive, got %d", line))
		}

		result, err := toggle.Execute(path, line-1)
		if err != nil {
			return toolError(err)
		}
		if result.Old == result.New {
			return mcp.NewToolResultText(fmt.Sprintf("No change: %s", strings.TrimSpace(result.Old))), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s:%d\n- %s\n+ %s", result.Path, result.Line+1, result.Old, result.New)), nil
	}
}

// --- rollover ---

func rolloverTool() mcp.Tool {
	return mcp.NewTool("rollover",
		mcp.WithDescription("Move all open tasks due today or earlier into today's daily note and mark the originals ROLLED."),
	)
}

func rolloverHandler(rollover *commands.RolloverCommand) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := rollover.Execute(ctx)
		if err != nil && result == nil {
			return toolError(err)
		}
		if result.Target == "" {
			return mcp.NewToolResultText("Nothing due to roll over."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Rolled %d tasks into %s", result.Rolled, result.Target)
		if result.Stale > 0 {
			fmt.Fprintf(&sb, "; %d stale lines left untouched", result.Stale)
		}
		if result.Skipped > 0 {
			fmt.Fprintf(&sb, "; %d tasks skipped (unparsable due date)", result.Skipped)
		}
		if len(result.Failed) > 0 {
			sb.WriteString("\nFailed files:")
			for _, f := range result.Failed {
				fmt.Fprintf(&sb, "\n  %s: %v", f.Path, f.Err)
			}
			return mcp.NewToolResultError(sb.String()), nil
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
