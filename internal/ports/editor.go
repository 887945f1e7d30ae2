package ports

// EditorOpener opens a note in the user's preferred text editor.
type EditorOpener interface {
	// OpenFile opens the file, positioned at the one-based line when the
	// editor supports it. Line 0 means no positioning.
	OpenFile(path string, line int) error
}
