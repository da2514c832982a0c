package diag

import (
	"pybridge/internal/source"
)

// Code is a rule identifier exactly as the tool reported it, e.g. "F401"
// for ruff or "unused-import" for pylint. Codes are opaque strings; no
// ordering beyond lexicographic is implied.
type Code string

// Pos is a linter-reported position. Line is 1-based; Col follows the
// adapter's normalisation (0-based for start positions).
type Pos struct {
	Line uint32
	Col  uint32
}

// Range is a pair of linter-reported positions.
type Range struct {
	Start Pos
	End   Pos
}

// TextEdit is a byte-precise replacement within a document. OldText is an
// optional guard the fix engine checks before applying.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Fix is a suggested automatic correction for a diagnostic.
type Fix struct {
	ID    string
	Title string
	Edits []TextEdit
}

// Diagnostic is a single finding reported by an external tool.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Source   string // tool id: "ruff", "pylint", "flake8", "mypy"
	Message  string
	File     source.FileID
	Range    Range
	Tags     []Tag
	Fixes    []Fix
}

func New(sev Severity, code Code, src string, file source.FileID, rng Range, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Source:   src,
		Message:  msg,
		File:     file,
		Range:    rng,
	}
}

func (d Diagnostic) WithTag(tag Tag) Diagnostic {
	d.Tags = append(d.Tags, tag)
	return d
}

func (d Diagnostic) WithFix(title string, edits ...TextEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}

// HasTag reports whether the diagnostic carries the given tag.
func (d Diagnostic) HasTag(tag Tag) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
