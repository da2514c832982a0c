// Package format adapts Python code formatters (black, isort) into
// full-document text edits.
package format

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"fortio.org/safecast"

	"pybridge/internal/diag"
	"pybridge/internal/execx"
	"pybridge/internal/source"
)

// Formatter adapts one external formatting tool.
type Formatter interface {
	// ID is the stable tool identifier used in config and output.
	ID() string
	// Args returns the fixed invocation arguments for stdin formatting.
	Args(stdinFilename string) []string
}

// New constructs the formatter for a known tool id.
func New(id string) (Formatter, bool) {
	switch id {
	case "black":
		return Black{}, true
	case "isort":
		return Isort{}, true
	}
	return nil, false
}

// Black formats the whole document via `black -`.
type Black struct{}

func (Black) ID() string { return "black" }

func (Black) Args(stdinFilename string) []string {
	return []string{"--stdin-filename", stdinFilename, "--quiet", "-"}
}

// Isort sorts imports via `isort -`.
type Isort struct{}

func (Isort) ID() string { return "isort" }

func (Isort) Args(stdinFilename string) []string {
	return []string{"--filename", stdinFilename, "-"}
}

// Run streams doc to the formatter and returns a single full-document
// replacement edit. ok is false when the document is already formatted,
// the run was cancelled, or the tool failed (logged to debugw).
func Run(ctx context.Context, runner execx.Runner, toolPath string, f Formatter, doc *source.File, debugw io.Writer) (diag.TextEdit, bool, error) {
	res, err := runner.Run(ctx, execx.Request{
		Path:  toolPath,
		Args:  f.Args(doc.Path),
		Stdin: doc.Content,
	})
	if err != nil {
		return diag.TextEdit{}, false, fmt.Errorf("%s: %w", f.ID(), err)
	}
	if res.Cancelled {
		return diag.TextEdit{}, false, nil
	}
	if res.ExitCode != 0 {
		if debugw != nil {
			fmt.Fprintf(debugw, "%s: exit %d: %s\n", f.ID(), res.ExitCode, bytes.TrimSpace(res.Stderr))
		}
		return diag.TextEdit{}, false, nil
	}
	if bytes.Equal(res.Stdout, doc.Content) {
		return diag.TextEdit{}, false, nil
	}

	end, err := safecast.Conv[uint32](len(doc.Content))
	if err != nil {
		return diag.TextEdit{}, false, fmt.Errorf("%s: document too large: %w", f.ID(), err)
	}
	edit := diag.TextEdit{
		Span:    source.Span{File: doc.ID, Start: 0, End: end},
		NewText: string(res.Stdout),
	}
	return edit, true, nil
}
