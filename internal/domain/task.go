package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Status represents the lifecycle state encoded in a task marker
type Status int

const (
	StatusUnknown Status = iota
	StatusTodo
	StatusComplete
	StatusRolled // terminal: the task was moved into a later note
)

func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "TODO"
	case StatusComplete:
		return "COMPLETE"
	case StatusRolled:
		return "ROLLED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus maps a marker keyword to its Status.
func ParseStatus(keyword string) Status {
	switch keyword {
	case "TODO":
		return StatusTodo
	case "COMPLETE":
		return StatusComplete
	case "ROLLED":
		return StatusRolled
	default:
		return StatusUnknown
	}
}

// Task is one parsed marker occurrence. File and Line identify the exact
// source line it was parsed from; they are only valid until that line changes
// and must never be cached across scans.
type Task struct {
	Text       string
	Priority   int
	Difficulty int
	Due        string // compact YYMMDD as written in the marker
	Status     Status
	File       string
	Line       int // zero-based
}

// Marker grammar: -=<STATE> <priority> <difficulty> <YYMMDD>=-<text>
var markerRegex = regexp.MustCompile(`^-=(TODO|COMPLETE|ROLLED) ([0-9]+) ([0-9]+) ([0-9]{6})=-(.*)$`)

// ParseMarker parses a single line into a Task. A line that does not match
// the marker grammar exactly is not a task; ok is false and the zero Task is
// returned. The function is total: no input string produces an error.
func ParseMarker(file string, line int, text string) (Task, bool) {
	m := markerRegex.FindStringSubmatch(text)
	if m == nil {
		return Task{}, false
	}

	// Overflowing digit groups keep Atoi's best-effort value.
	priority, _ := strconv.Atoi(m[2])
	difficulty, _ := strconv.Atoi(m[3])

	return Task{
		Text:       strings.TrimLeft(m[5], " \t"),
		Priority:   priority,
		Difficulty: difficulty,
		Due:        m[4],
		Status:     ParseStatus(m[1]),
		File:       file,
		Line:       line,
	}, true
}

// Marker renders the task back into its wire format. ParseMarker(Marker())
// round-trips all fields.
func (t Task) Marker() string {
	return fmt.Sprintf("-=%s %d %d %s=-%s", t.Status, t.Priority, t.Difficulty, t.Due, t.Text)
}

// DueDate decodes the marker's compact due date.
func (t Task) DueDate() (Date, error) {
	return ParseCompact(t.Due)
}

// Open reports whether the task still needs doing.
func (t Task) Open() bool {
	return t.Status == StatusTodo
}

// ToggleLine flips the task state of one line of note text and returns the
// replacement line. It is total: any input line maps to exactly one output
// line, with no side effects.
//
//   - a TODO marker becomes COMPLETE stamped with today's date
//   - a COMPLETE marker becomes TODO again, restoring the created date (the
//     containing note's own date), never today's
//   - a ROLLED marker is terminal and passes through unchanged
//   - any other non-blank line gains a "TODO 1 1 <today>" marker with the
//     original text as description
//   - a blank line becomes a bare TODO marker with an empty description
//
// Field substitution keeps the raw description bytes intact, including any
// leading whitespace after the closing delimiter.
func ToggleLine(line string, today, created Date) string {
	m := markerRegex.FindStringSubmatchIndex(line)
	if m == nil {
		if strings.TrimSpace(line) == "" {
			return fmt.Sprintf("-=TODO 1 1 %s=-", today.Compact())
		}
		return fmt.Sprintf("-=TODO 1 1 %s=-%s", today.Compact(), line)
	}

	state := line[m[2]:m[3]]
	fields := line[m[3]:m[8]] // " <priority> <difficulty> " between state and date
	rest := line[m[9]:]       // "=-<description>" onward

	switch state {
	case "TODO":
		return "-=COMPLETE" + fields + today.Compact() + rest
	case "COMPLETE":
		return "-=TODO" + fields + created.Compact() + rest
	default:
		return line
	}
}

// RollLine rewrites a TODO marker line to its terminal ROLLED form. Only the
// leading state token is substituted; priority, difficulty, date and the raw
// description bytes are preserved verbatim. Lines that are not open markers
// are returned unchanged with ok false.
func RollLine(line string) (string, bool) {
	if !strings.HasPrefix(line, "-=TODO ") {
		return line, false
	}
	if _, ok := ParseMarker("", 0, line); !ok {
		return line, false
	}
	return "-=ROLLED " + strings.TrimPrefix(line, "-=TODO "), true
}

// SortTasks orders tasks for presentation: priority descending, then due
// date ascending, then source file and line. Rollover keeps discovery order
// and does not use this.
func SortTasks(tasks []Task) {
	slices.SortFunc(tasks, func(a, b Task) int {
		if a.Priority != b.Priority {
			if a.Priority > b.Priority {
				return -1
			}
			return 1
		}
		if a.Due != b.Due {
			da, errA := a.DueDate()
			db, errB := b.DueDate()
			if errA == nil && errB == nil {
				if da.Before(db) {
					return -1
				}
				return 1
			}
		}
		if a.File != b.File {
			if a.File < b.File {
				return -1
			}
			return 1
		}
		return a.Line - b.Line
	})
}
