// Package linters adapts external Python lint tools into the unified
// diagnostic model. Each adapter knows the fixed argument set that makes
// its tool emit parseable output over stdin, and how to map that output
// onto diag.Diagnostic records.
package linters

import (
	"context"
	"fmt"
	"io"

	"pybridge/internal/diag"
	"pybridge/internal/execx"
	"pybridge/internal/source"
)

// Linter adapts one external tool.
type Linter interface {
	// ID is the stable tool identifier used in config and output.
	ID() string
	// Args returns the fixed invocation arguments. The document is always
	// streamed over stdin under the given filename.
	Args(stdinFilename string) []string
	// Parse converts raw tool output into diagnostics for doc. It fails
	// soft: malformed output yields an empty slice and a debug log line.
	Parse(raw []byte, doc *source.File) []diag.Diagnostic
}

// Options configure adapter construction.
type Options struct {
	// DebugWriter receives parse-failure log lines; nil discards them.
	DebugWriter io.Writer
}

// New constructs the adapter for a known tool id.
func New(id string, opts Options) (Linter, bool) {
	switch id {
	case "ruff":
		return &Ruff{debugw: opts.DebugWriter}, true
	case "pylint":
		return &Pylint{debugw: opts.DebugWriter}, true
	case "flake8":
		return &Flake8{debugw: opts.DebugWriter}, true
	case "mypy":
		return &Mypy{debugw: opts.DebugWriter}, true
	}
	return nil, false
}

// Known lists supported tool ids in priority order.
func Known() []string {
	return []string{"ruff", "pylint", "flake8", "mypy"}
}

// Invoke runs the tool over doc and parses its output into bag.
// Cancellation terminates the subprocess and yields zero diagnostics;
// only spawn failures surface as errors.
func Invoke(ctx context.Context, runner execx.Runner, toolPath string, lint Linter, doc *source.File, bag *diag.Bag) error {
	res, err := runner.Run(ctx, execx.Request{
		Path:  toolPath,
		Args:  lint.Args(doc.Path),
		Stdin: doc.Content,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", lint.ID(), err)
	}
	if res.Cancelled {
		return nil
	}
	for _, d := range lint.Parse(res.Stdout, doc) {
		if !bag.Add(d) {
			break
		}
	}
	return nil
}

func debugf(w io.Writer, id, format string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, id+": "+format+"\n", args...)
}
