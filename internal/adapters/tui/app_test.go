package tui

import (
	"strings"
	"testing"

	"github.com/NathanJKW/calmdown/internal/application/commands"
)

func TestToggleMessage_NamesTheTransition(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want string
	}{
		{
			name: "completing an open task",
			old:  "-=TODO 2 1 240101=-water plants",
			new:  "-=COMPLETE 2 1 240115=-water plants",
			want: "completed",
		},
		{
			name: "reopening a completed task",
			old:  "-=COMPLETE 2 1 240115=-water plants",
			new:  "-=TODO 2 1 240101=-water plants",
			want: "reopened",
		},
		{
			name: "plain text becomes a task",
			old:  "buy milk",
			new:  "-=TODO 1 1 240115=-buy milk",
			want: "added",
		},
		{
			name: "rolled line untouched",
			old:  "-=ROLLED 1 1 240101=-moved on",
			new:  "-=ROLLED 1 1 240101=-moved on",
			want: "no change",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := toggleMessage(&commands.ToggleResult{Old: tt.old, New: tt.new})
			if !strings.HasPrefix(msg, tt.want+":") {
				t.Errorf("got %q, want prefix %q", msg, tt.want+":")
			}
		})
	}
}

func TestUpdate_ToggledMsgSetsTransitionMessage(t *testing.T) {
	app := NewApp(nil, nil, nil)

	_, _ = app.Update(toggledMsg{result: &commands.ToggleResult{
		Old: "-=COMPLETE 2 1 240115=-water plants",
		New: "-=TODO 2 1 240101=-water plants",
	}})

	if !strings.HasPrefix(app.message, "reopened:") {
		t.Errorf("message = %q, want a reopened transition", app.message)
	}
	if app.messageErr {
		t.Error("transition message flagged as error")
	}
}
