package linters

import (
	"encoding/json"
	"io"
	"strings"

	"pybridge/internal/diag"
	"pybridge/internal/source"
)

// Pylint adapts pylint's JSON output. Pylint reports 0-based columns
// already, so only lines need care; end positions may be absent.
type Pylint struct {
	debugw io.Writer
}

func (*Pylint) ID() string { return "pylint" }

func (*Pylint) Args(stdinFilename string) []string {
	return []string{"--output-format", "json", "--exit-zero", "--from-stdin", stdinFilename}
}

type pylintEntry struct {
	Type      string  `json:"type"`
	Line      uint32  `json:"line"`
	Column    uint32  `json:"column"`
	EndLine   *uint32 `json:"endLine"`
	EndColumn *uint32 `json:"endColumn"`
	Symbol    string  `json:"symbol"`
	MessageID string  `json:"message-id"`
	Message   string  `json:"message"`
}

func pylintSeverity(typ string) diag.Severity {
	switch typ {
	case "error", "fatal":
		return diag.SevError
	case "warning":
		return diag.SevWarning
	default: // convention, refactor, info
		return diag.SevInfo
	}
}

func (p *Pylint) Parse(raw []byte, doc *source.File) []diag.Diagnostic {
	var entries []pylintEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		debugf(p.debugw, "pylint", "unparseable output: %v", err)
		return nil
	}

	out := make([]diag.Diagnostic, 0, len(entries))
	for _, entry := range entries {
		code := entry.Symbol
		if code == "" {
			code = entry.MessageID
		}
		end := diag.Pos{Line: entry.Line, Col: entry.Column}
		if entry.EndLine != nil {
			end.Line = *entry.EndLine
		}
		if entry.EndColumn != nil {
			end.Col = *entry.EndColumn
		}
		rng := diag.Range{
			Start: diag.Pos{Line: entry.Line, Col: entry.Column},
			End:   end,
		}
		d := diag.New(pylintSeverity(entry.Type), diag.Code(code), "pylint", doc.ID, rng, entry.Message)
		if strings.HasPrefix(code, "unused-") {
			d = d.WithTag(diag.TagUnnecessary)
		}
		out = append(out, d)
	}
	return out
}
