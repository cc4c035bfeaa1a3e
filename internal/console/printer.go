package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"openrouter-imagegen/internal/extractor"
	"openrouter-imagegen/internal/generator"
	"openrouter-imagegen/internal/openrouter"
)

type PrinterOptions struct {
	Out     io.Writer
	NoColor bool
}

// Printer writes user-facing status lines for the interactive client.
type Printer struct {
	out   io.Writer
	bold  *color.Color
	ok    *color.Color
	warn  *color.Color
	fail  *color.Color
	faint *color.Color
}

func NewPrinter(opts PrinterOptions) *Printer {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	p := &Printer{
		out:   out,
		bold:  color.New(color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed),
		faint: color.New(color.Faint),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{p.bold, p.ok, p.warn, p.fail, p.faint} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Banner(model string) {
	p.bold.Fprintln(p.out, "OpenRouter Image Generator")
	fmt.Fprintln(p.out, strings.Repeat("=", 40))
	fmt.Fprintf(p.out, "Using model: %s\n\n", model)
	fmt.Fprintln(p.out, "Enter your own prompts (type 'quit' to exit)")
}

func (p *Printer) Generating(prompt string) {
	p.faint.Fprintf(p.out, "Generating: %s\n", prompt)
}

func (p *Printer) Result(res generator.Result) {
	out := res.Outcome
	switch out.Status {
	case extractor.StatusSaved:
		p.ok.Fprintf(p.out, "✅ Image saved as: %s\n", out.Artifact.Filename)
		fmt.Fprintf(p.out, "📁 Full path: %s\n", out.Path)
		fmt.Fprintf(p.out, "📊 Image size: %d bytes\n", len(out.Artifact.Bytes))
		if res.OpenErr != nil {
			p.warn.Fprintf(p.out, "Could not open image automatically: %v\n", res.OpenErr)
			fmt.Fprintf(p.out, "Please open manually: %s\n", out.Path)
		}
	case extractor.StatusNotFound:
		p.warn.Fprintf(p.out, "No image data found in response. Check %s for details.\n", debugName(res))
		fmt.Fprintln(p.out, "Response structure:", strings.TrimSpace(res.PrettyResponse()))
	default:
		p.fail.Fprintln(p.out, out.Message())
	}

	if res.Raw.ErrorMessage != "" {
		p.warn.Fprintf(p.out, "Provider message: %s\n", res.Raw.ErrorMessage)
	}
	fmt.Fprintln(p.out, "Request sent successfully!")
	fmt.Fprintf(p.out, "Check %s for response details\n", debugName(res))
}

func (p *Printer) Error(err error) {
	var statusErr *openrouter.StatusError
	switch {
	case errors.As(err, &statusErr):
		p.fail.Fprintf(p.out, "Error making request: %v\n", statusErr)
	case errors.Is(err, openrouter.ErrMalformedResponse), errors.Is(err, extractor.ErrMalformedResponse):
		p.fail.Fprintf(p.out, "Error parsing response: %v\n", err)
	default:
		p.fail.Fprintf(p.out, "Error: %v\n", err)
	}
}

func debugName(res generator.Result) string {
	if res.DebugPath == "" {
		return generator.DefaultDebugFile
	}
	return res.DebugPath
}
