// Package logging wires up the module's one structured logger. Every
// pipeline phase (catalog build, statistics analysis, estimation) logs
// through log/slog rather than fmt.Printf, so callers embedding this
// module as a library can redirect or filter it like any other slog
// output.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Setup installs a slog.Logger as the default, text-formatted for a
// terminal and JSON otherwise (piped to a file, captured by CI), and
// returns it for callers that want to hold a reference directly
// instead of going through slog's package-level functions. verbose
// lowers the level to Debug; otherwise only Info and above are logged,
// matching the teacher's verbose-bool gate in progress.go.
func Setup(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(newHandler(os.Stderr, level))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
