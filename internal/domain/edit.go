package domain

import "fmt"

// EditOp distinguishes the two line-edit kinds a note write supports.
type EditOp int

const (
	OpReplace EditOp = iota
	OpInsert
)

// LineEdit is one targeted change to a note's line buffer. Line numbers are
// zero-based and refer to the buffer as it stands when the edit is applied;
// edits in a batch are applied strictly in order.
type LineEdit struct {
	Op   EditOp
	Line int
	Text string
}

// Replace builds an edit overwriting the line at the given index.
func Replace(line int, text string) LineEdit {
	return LineEdit{Op: OpReplace, Line: line, Text: text}
}

// Insert builds an edit inserting a new line before the given index. An index
// equal to the buffer length appends at end-of-file.
func Insert(line int, text string) LineEdit {
	return LineEdit{Op: OpInsert, Line: line, Text: text}
}

// ApplyEdits applies a batch of line edits to a copy of lines and returns the
// resulting buffer. The input slice is never mutated. An edit addressing a
// line outside the buffer fails the whole batch; callers treat that as a
// stale-location error and re-discover.
func ApplyEdits(lines []string, edits []LineEdit) ([]string, error) {
	out := make([]string, len(lines))
	copy(out, lines)

	for _, e := range edits {
		switch e.Op {
		case OpReplace:
			if e.Line < 0 || e.Line >= len(out) {
				return nil, fmt.Errorf("replace at line %d outside buffer of %d lines", e.Line, len(out))
			}
			out[e.Line] = e.Text
		case OpInsert:
			if e.Line < 0 || e.Line > len(out) {
				return nil, fmt.Errorf("insert at line %d outside buffer of %d lines", e.Line, len(out))
			}
			out = append(out[:e.Line], append([]string{e.Text}, out[e.Line:]...)...)
		default:
			return nil, fmt.Errorf("unknown edit op %d", e.Op)
		}
	}
	return out, nil
}
