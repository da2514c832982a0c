package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"pybridge/internal/diag"
	"pybridge/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	pathColor = color.New(color.Bold)
	fixColor  = color.New(color.FgGreen)
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <source>/<CODE>: <Message>
// затем строку контекста с подчёркиванием ^~~~ по диапазону.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		file := fs.Get(d.File)
		path := formatPath(file, fs, opts.PathMode)

		// Внутренняя колонка старта 0-based; людям показываем 1-based.
		header := fmt.Sprintf("%s:%d:%d: %s %s: %s",
			paint(opts.Color, pathColor, path),
			d.Range.Start.Line, d.Range.Start.Col+1,
			paint(opts.Color, severityColor(d.Severity), d.Severity.String()),
			sourceCode(d),
			d.Message)
		fmt.Fprintln(w, truncate(header, opts.Width))

		writeContext(w, file, d, opts)

		if opts.ShowFixes {
			for _, f := range d.Fixes {
				fmt.Fprintf(w, "  %s %s", paint(opts.Color, fixColor, "fix:"), f.Title)
				if f.ID != "" {
					fmt.Fprintf(w, " [%s]", f.ID)
				}
				fmt.Fprintln(w)
			}
		}
	}
}

// writeContext prints the offending source line with a caret underline.
// Multi-line ranges underline to the end of the first line.
func writeContext(w io.Writer, file *source.File, d diag.Diagnostic, opts PrettyOpts) {
	line := file.GetLine(d.Range.Start.Line)
	if line == "" {
		return
	}
	expanded := strings.ReplaceAll(line, "\t", "    ")
	fmt.Fprintf(w, "  %s\n", truncate(expanded, opts.Width))

	startCol := int(d.Range.Start.Col)
	if startCol > len(line) {
		startCol = len(line)
	}
	endCol := len(line)
	if d.Range.End.Line == d.Range.Start.Line && int(d.Range.End.Col) <= len(line) {
		// Конечная колонка приходит от инструмента как есть (1-based-style
		// exclusive); не корректируем.
		endCol = int(d.Range.End.Col)
	}
	if endCol <= startCol {
		endCol = startCol + 1
	}

	prefix := strings.ReplaceAll(line[:startCol], "\t", "    ")
	pad := runewidth.StringWidth(prefix)

	var segment string
	if startCol < len(line) {
		to := endCol
		if to > len(line) {
			to = len(line)
		}
		segment = strings.ReplaceAll(line[startCol:to], "\t", "    ")
	}
	width := runewidth.StringWidth(segment)
	if width < 1 {
		width = 1
	}

	underline := "^" + strings.Repeat("~", width-1)
	marker := strings.Repeat(" ", pad) + underline
	if opts.Color {
		marker = strings.Repeat(" ", pad) + severityColor(d.Severity).Sprint(underline)
	}
	fmt.Fprintf(w, "  %s\n", marker)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}

func sourceCode(d diag.Diagnostic) string {
	if d.Code == "" || string(d.Code) == d.Source {
		return d.Source
	}
	return d.Source + "/" + string(d.Code)
}

func paint(enabled bool, c *color.Color, s string) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
