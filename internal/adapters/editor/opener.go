// Package editor shells out to the user's text editor.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/NathanJKW/calmdown/internal/ports"
)

// Opener opens journal notes in the editor named by $EDITOR.
type Opener struct {
	root string
}

var _ ports.EditorOpener = (*Opener)(nil)

// NewOpener creates an opener resolving note paths against root.
func NewOpener(root string) *Opener {
	return &Opener{root: root}
}

// OpenFile opens a note, jumping to the one-based line when the editor is a
// vi-family or nano-family program that accepts +N.
func (o *Opener) OpenFile(path string, line int) error {
	editor := findEditor()
	if editor == "" {
		return fmt.Errorf("no editor found: set $EDITOR")
	}

	args := []string{}
	if line > 0 && supportsLineJump(editor) {
		args = append(args, fmt.Sprintf("+%d", line))
	}
	args = append(args, filepath.Join(o.root, filepath.FromSlash(path)))

	cmd := exec.Command(editor, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func supportsLineJump(editor string) bool {
	base := filepath.Base(editor)
	for _, known := range []string{"vi", "vim", "nvim", "nano", "emacs", "micro", "hx", "helix"} {
		if base == known || strings.HasPrefix(base, known+" ") {
			return true
		}
	}
	return false
}

func findEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}
	for _, editor := range []string{"nvim", "vim", "vi", "nano"} {
		if path, err := exec.LookPath(editor); err == nil {
			return path
		}
	}
	return ""
}
