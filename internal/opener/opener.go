// Package opener shows a saved file with the host's default application.
package opener

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/browser"
)

type Options struct {
	Logger *slog.Logger
	// Open overrides the platform opener; used by tests. The default,
	// browser.OpenFile, copies the launcher's output to browser.Stdout and
	// browser.Stderr.
	Open func(path string) error
}

type Opener struct {
	open   func(path string) error
	logger *slog.Logger
}

func New(opts Options) *Opener {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	open := opts.Open
	if open == nil {
		open = browser.OpenFile
	}

	return &Opener{open: open, logger: logger}
}

// Open launches the default viewer for path (open, xdg-open or the
// Windows file protocol handler) and waits for the launcher to return.
func (o *Opener) Open(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("open image: empty path")
	}
	if err := o.open(path); err != nil {
		return fmt.Errorf("open image %s: %w", path, err)
	}
	o.logger.Debug("image opened", "path", path)
	return nil
}
