package diagfmt

import (
	"encoding/json"
	"io"

	"pybridge/internal/diag"
	"pybridge/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	NewText   string `json:"new_text"`
	OldText   string `json:"old_text,omitempty"`
}

// FixJSON представляет предложение по исправлению для JSON
type FixJSON struct {
	ID    string        `json:"id,omitempty"`
	Title string        `json:"title"`
	Edits []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Source   string       `json:"source"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Tags     []string     `json:"tags,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(d diag.Diagnostic, fs *source.FileSet, pathMode PathMode) LocationJSON {
	f := fs.Get(d.File)
	return LocationJSON{
		File:      formatPath(f, fs, pathMode),
		StartLine: d.Range.Start.Line,
		StartCol:  d.Range.Start.Col,
		EndLine:   d.Range.End.Line,
		EndCol:    d.Range.End.Col,
	}
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := range maxItems {
		d := items[i]

		diagJSON := DiagnosticJSON{
			Severity: d.Severity.String(),
			Source:   d.Source,
			Code:     string(d.Code),
			Message:  d.Message,
			Location: makeLocation(d, fs, opts.PathMode),
		}

		if len(d.Tags) > 0 {
			diagJSON.Tags = make([]string, len(d.Tags))
			for j, tag := range d.Tags {
				diagJSON.Tags[j] = tag.String()
			}
		}

		if opts.IncludeFixes && len(d.Fixes) > 0 {
			diagJSON.Fixes = make([]FixJSON, 0, len(d.Fixes))
			for _, f := range d.Fixes {
				fixJSON := FixJSON{ID: f.ID, Title: f.Title}
				for _, edit := range f.Edits {
					fixJSON.Edits = append(fixJSON.Edits, FixEditJSON{
						StartByte: edit.Span.Start,
						EndByte:   edit.Span.End,
						NewText:   edit.NewText,
						OldText:   edit.OldText,
					})
				}
				diagJSON.Fixes = append(diagJSON.Fixes, fixJSON)
			}
		}

		diagnostics = append(diagnostics, diagJSON)
	}

	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	output := BuildDiagnosticsOutput(bag, fs, opts)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
