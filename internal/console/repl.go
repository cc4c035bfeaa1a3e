// Package console is the interactive prompt loop of the command-line
// client.
package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"openrouter-imagegen/internal/generator"
)

// LineReader is satisfied by *readline.Instance.
type LineReader interface {
	Readline() (string, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (generator.Result, error)
}

type REPL struct {
	Reader    LineReader
	Generator Generator
	Printer   *Printer
	// Timeout bounds a single generation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// IsQuit reports whether line ends the session.
func IsQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// Run reads prompts until quit, EOF, Ctrl-C on an empty line, or ctx is
// done. A failed generation is reported and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.Reader.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if IsQuit(line) {
			return nil
		}
		if line == "" {
			continue
		}

		r.Once(ctx, line)
	}
}

// Once runs a single prompt and prints its outcome. It reports whether
// the request itself succeeded.
func (r *REPL) Once(ctx context.Context, prompt string) bool {
	r.Printer.Generating(prompt)

	reqCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	res, err := r.Generator.Generate(reqCtx, prompt)
	if err != nil {
		r.Printer.Error(err)
		return false
	}
	r.Printer.Result(res)
	return true
}
