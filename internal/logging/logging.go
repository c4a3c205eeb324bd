// ABOUTME: Logger setup shared by all commands
// ABOUTME: Routes charmbracelet/log to a file while the TUI owns the terminal
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Options selects the log destination and level
type Options struct {
	Level string
	// File receives logs when set; otherwise they go to Stderr
	File string
	// Quiet drops stderr output entirely, used while the TUI is running
	Quiet bool
}

// Setup configures log.Default() and returns a closer for the log file
func Setup(opts Options) (*log.Logger, func() error, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file: %w", err)
		}
		closer = f.Close
		if opts.Quiet {
			w = f
		} else {
			w = io.MultiWriter(os.Stderr, f)
		}
	} else if opts.Quiet {
		w = io.Discard
	}

	logger := New(w, level)
	log.SetDefault(logger)
	return logger, closer, nil
}

// New builds a timestamped logger writing to w
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "wavdeck",
	})
}
