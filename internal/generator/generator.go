// Package generator runs one prompt through the provider and the
// extractor, keeping a debug copy of every response.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tidwall/pretty"
	"golang.org/x/sync/semaphore"

	"openrouter-imagegen/internal/extractor"
	"openrouter-imagegen/internal/openrouter"
)

const DefaultDebugFile = "response_debug.json"

var ErrEmptyPrompt = errors.New("prompt is empty")

type Completer interface {
	Complete(ctx context.Context, prompt string) (openrouter.RawResponse, error)
}

type Opener interface {
	Open(path string) error
}

type Options struct {
	Completer Completer
	Extractor *extractor.Extractor
	// Opener is called for every saved image. Nil disables auto-open.
	Opener    Opener
	DebugFile string
	Logger    *slog.Logger
}

// Result describes a completed request. Outcome holds the extraction
// status; only transport and parse failures are returned as errors.
type Result struct {
	Prompt    string
	Outcome   extractor.Outcome
	Raw       openrouter.RawResponse
	DebugPath string
	OpenErr   error
}

// PrettyResponse returns the raw response indented for display.
func (r Result) PrettyResponse() string {
	return string(pretty.Pretty(r.Raw.Body))
}

type Service struct {
	completer Completer
	extractor *extractor.Extractor
	opener    Opener
	debugFile string
	logger    *slog.Logger
	sem       *semaphore.Weighted
}

func New(opts Options) (*Service, error) {
	if opts.Completer == nil {
		return nil, errors.New("completer is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ext := opts.Extractor
	if ext == nil {
		ext = extractor.New(extractor.Options{Logger: logger})
	}

	debugFile := strings.TrimSpace(opts.DebugFile)
	if debugFile == "" {
		debugFile = DefaultDebugFile
	}

	return &Service{
		completer: opts.Completer,
		extractor: ext,
		opener:    opts.Opener,
		debugFile: debugFile,
		logger:    logger,
		sem:       semaphore.NewWeighted(1),
	}, nil
}

// Generate sends prompt, dumps the response to the debug file, and saves
// the first image found. Calls are serialised: a second caller waits until
// the first has written its files.
func (s *Service) Generate(ctx context.Context, prompt string) (Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, ErrEmptyPrompt
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer s.sem.Release(1)

	start := time.Now()
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}

	result := Result{Prompt: prompt, Raw: raw}

	if err := s.writeDebug(raw.Body); err != nil {
		s.logger.Warn("write debug response failed", "file", s.debugFile, "err", err)
	} else {
		result.DebugPath = s.debugFile
	}

	resp, err := extractor.Decode(raw.Body)
	if err != nil {
		return result, fmt.Errorf("generate: %w", err)
	}

	result.Outcome = s.extractor.Extract(resp, prompt)

	if result.Outcome.Saved() && s.opener != nil {
		if err := s.opener.Open(result.Outcome.Path); err != nil {
			s.logger.Warn("could not open image automatically", "path", result.Outcome.Path, "err", err)
			result.OpenErr = err
		}
	}

	s.logger.Info("generation finished",
		"status", result.Outcome.Status.String(),
		"strategy", string(result.Outcome.Strategy),
		"model", raw.Model,
		"dur_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *Service) writeDebug(body []byte) error {
	return os.WriteFile(s.debugFile, pretty.Pretty(body), 0644)
}
