// Package extractor locates an embedded image in a chat-completion
// response, decodes it and writes it next to the caller.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type Status int

const (
	StatusSaved Status = iota
	StatusNotFound
	StatusDecodeFailed
	StatusWriteFailed
)

func (s Status) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusNotFound:
		return "not_found"
	case StatusDecodeFailed:
		return "decode_failed"
	case StatusWriteFailed:
		return "write_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Artifact is a decoded image ready to be written once.
type Artifact struct {
	Bytes    []byte
	Format   Format
	Filename string
}

// Outcome reports what Extract did. Err is set for decode and write
// failures; it is informational and never fatal.
type Outcome struct {
	Status   Status
	Strategy Strategy
	Artifact *Artifact
	Path     string
	Err      error
}

func (o Outcome) Saved() bool { return o.Status == StatusSaved }

// Message is the human readable status line for o.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusSaved:
		return fmt.Sprintf("Image saved as: %s (%d bytes)", o.Artifact.Filename, len(o.Artifact.Bytes))
	case StatusNotFound:
		return "No image data found in response."
	case StatusDecodeFailed:
		return fmt.Sprintf("Error extracting base64 image: %v", o.Err)
	case StatusWriteFailed:
		return fmt.Sprintf("Error saving image: %v", o.Err)
	default:
		return o.Status.String()
	}
}

type Options struct {
	// Dir is where images are written. Empty means the working directory.
	Dir string
	// StrictDataURL treats references without a ;base64, separator as a
	// miss instead of decoding them as raw base64.
	StrictDataURL bool
	Logger        *slog.Logger
}

type Extractor struct {
	dir    string
	strict bool
	logger *slog.Logger
}

func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Extractor{
		dir:    opts.Dir,
		strict: opts.StrictDataURL,
		logger: logger,
	}
}

// Extract looks for one image in resp, and if found writes it to
// Filename(prompt, format) inside the extractor's directory, replacing any
// existing file.
func (e *Extractor) Extract(resp Response, prompt string) Outcome {
	match, ok := Locate(resp)
	if !ok {
		e.logger.Info("no image in response", "choices", len(resp.Choices))
		return Outcome{Status: StatusNotFound}
	}

	data, format, err := DecodeImage(match.DataURL, e.strict)
	if errors.Is(err, ErrNotDataURL) {
		e.logger.Info("image reference is not a data url", "strategy", match.Strategy)
		return Outcome{Status: StatusNotFound, Strategy: match.Strategy}
	}
	if err != nil {
		e.logger.Warn("decode image failed", "strategy", match.Strategy, "err", err)
		return Outcome{Status: StatusDecodeFailed, Strategy: match.Strategy, Err: err}
	}

	artifact := &Artifact{
		Bytes:    data,
		Format:   format,
		Filename: Filename(prompt, format),
	}

	path, err := e.write(artifact)
	if err != nil {
		e.logger.Error("write image failed", "file", artifact.Filename, "err", err)
		return Outcome{Status: StatusWriteFailed, Strategy: match.Strategy, Artifact: artifact, Err: err}
	}

	e.logger.Debug("image saved", "path", path, "bytes", len(data), "strategy", match.Strategy)
	return Outcome{
		Status:   StatusSaved,
		Strategy: match.Strategy,
		Artifact: artifact,
		Path:     path,
	}
}

func (e *Extractor) write(a *Artifact) (string, error) {
	path := a.Filename
	if e.dir != "" {
		path = filepath.Join(e.dir, a.Filename)
	}

	if err := os.WriteFile(path, a.Bytes, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
