package system

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger.
// Subcommands print to stderr; the TUI redirects it via Redirect
// because the terminal belongs to the program while it runs.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
})

// Redirect points Logger at path (or discards output when path is empty)
// and applies level. The returned func closes the log file.
func Redirect(path, level string) (func() error, error) {
	if lvl, err := clog.ParseLevel(strings.TrimSpace(level)); err == nil && strings.TrimSpace(level) != "" {
		Logger.SetLevel(lvl)
	}
	if strings.TrimSpace(path) == "" {
		Logger.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	Logger.SetOutput(f)
	return f.Close, nil
}
