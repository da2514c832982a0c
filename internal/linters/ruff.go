package linters

import (
	"encoding/json"
	"io"

	"pybridge/internal/diag"
	"pybridge/internal/source"
)

// Ruff adapts ruff's JSON output.
//
// Mapping contract:
//   - reported columns are 1-based; the start column is normalised to
//     0-based, the end column is copied unmodified;
//   - severity is always Warning — ruff itself does not classify severity
//     in its JSON output, so nothing is inferred;
//   - the unused-import/unused-variable codes get TagUnnecessary;
//   - fix data becomes a single replacement over the 0-based row range
//     (row-1, col)..(endRow-1, endCol) of the document ruff was fed.
type Ruff struct {
	debugw io.Writer
}

func (*Ruff) ID() string { return "ruff" }

func (*Ruff) Args(stdinFilename string) []string {
	return []string{"--format", "json", "--exit-zero", "--stdin-filename", stdinFilename, "-"}
}

// unnecessaryCodes are the codes rendered faded out by editors.
var unnecessaryCodes = map[string]bool{
	"F401": true, // unused import
	"F841": true, // unused variable
}

type ruffPosition struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
}

type ruffFix struct {
	Content     string       `json:"content"`
	Message     string       `json:"message"`
	Location    ruffPosition `json:"location"`
	EndLocation ruffPosition `json:"end_location"`
}

type ruffEntry struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	Location    ruffPosition `json:"location"`
	EndLocation ruffPosition `json:"end_location"`
	Fix         *ruffFix     `json:"fix"`
}

func (r *Ruff) Parse(raw []byte, doc *source.File) []diag.Diagnostic {
	var entries []ruffEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		debugf(r.debugw, "ruff", "unparseable output: %v", err)
		return nil
	}

	out := make([]diag.Diagnostic, 0, len(entries))
	for _, entry := range entries {
		col := entry.Location.Column
		if col > 0 {
			col--
		}
		rng := diag.Range{
			Start: diag.Pos{Line: entry.Location.Row, Col: col},
			End:   diag.Pos{Line: entry.EndLocation.Row, Col: entry.EndLocation.Column},
		}
		d := diag.New(diag.SevWarning, diag.Code(entry.Code), "ruff", doc.ID, rng, entry.Message)
		if unnecessaryCodes[entry.Code] {
			d = d.WithTag(diag.TagUnnecessary)
		}
		if entry.Fix != nil {
			d = d.WithFix(fixTitle(entry.Fix), ruffEditSpan(entry.Fix, doc))
		}
		out = append(out, d)
	}
	return out
}

func fixTitle(fix *ruffFix) string {
	if fix.Message != "" {
		return fix.Message
	}
	return "apply ruff suggestion"
}

// ruffEditSpan converts a ruff fix record into a byte-precise edit.
// Fix locations use 1-based rows with 0-based columns.
func ruffEditSpan(fix *ruffFix, doc *source.File) diag.TextEdit {
	startRow := fix.Location.Row
	if startRow > 0 {
		startRow--
	}
	endRow := fix.EndLocation.Row
	if endRow > 0 {
		endRow--
	}
	span := source.Span{
		File:  doc.ID,
		Start: doc.Offset(startRow, fix.Location.Column),
		End:   doc.Offset(endRow, fix.EndLocation.Column),
	}
	return diag.TextEdit{Span: span, NewText: fix.Content}
}
