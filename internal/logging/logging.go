// Package logging sets up the shared structured logger.
package logging

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/NathanJKW/calmdown/internal/ports"
)

// New builds a logger writing to stderr at the named level. Unknown levels
// fall back to warn so a typo in config never silences errors.
func New(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "calmdown",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Notifier adapts the logger to the advisory notification port.
type Notifier struct {
	logger *log.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wraps logger as a Notifier.
func NewNotifier(logger *log.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Info(msg string)  { n.logger.Info(msg) }
func (n *Notifier) Warn(msg string)  { n.logger.Warn(msg) }
func (n *Notifier) Error(msg string) { n.logger.Error(msg) }
