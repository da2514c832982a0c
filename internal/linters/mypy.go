package linters

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"

	"pybridge/internal/diag"
	"pybridge/internal/source"
)

// Mypy adapts mypy's column-bearing text output:
//
//	<file>:<row>:<col>: <severity>: <message>
//
// mypy must be invoked with --show-column-numbers for the column field to
// appear; lines without one are anchored at column 0.
type Mypy struct {
	debugw io.Writer
}

func (*Mypy) ID() string { return "mypy" }

func (*Mypy) Args(stdinFilename string) []string {
	return []string{
		"--show-column-numbers",
		"--no-error-summary",
		"--no-pretty",
		"--shadow-file", stdinFilename, "/dev/stdin",
		stdinFilename,
	}
}

var mypyLine = regexp.MustCompile(`^(.+?):(\d+):(?:(\d+):)?\s*(error|warning|note):\s*(.*)$`)

func mypySeverity(word string) diag.Severity {
	switch word {
	case "error":
		return diag.SevError
	case "note":
		return diag.SevInfo
	default:
		return diag.SevWarning
	}
}

func (m *Mypy) Parse(raw []byte, doc *source.File) []diag.Diagnostic {
	var out []diag.Diagnostic
	bad := 0

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		match := mypyLine.FindStringSubmatch(line)
		if match == nil {
			bad++
			continue
		}
		row, col, ok := parsePosition(match[2], orZero(match[3]))
		if !ok {
			bad++
			continue
		}
		if col > 0 {
			col--
		}
		rng := diag.Range{
			Start: diag.Pos{Line: row, Col: col},
			End:   diag.Pos{Line: row, Col: col},
		}
		message, code := splitMypyCode(match[5])
		out = append(out, diag.New(mypySeverity(match[4]), code, "mypy", doc.ID, rng, message))
	}
	if bad > 0 {
		debugf(m.debugw, "mypy", "skipped %d unparseable lines", bad)
	}
	return out
}

// splitMypyCode peels the trailing "[code]" marker mypy appends when run
// with error codes enabled. Messages without one keep the tool name as code.
func splitMypyCode(message string) (string, diag.Code) {
	trimmed := strings.TrimRight(message, " ")
	if strings.HasSuffix(trimmed, "]") {
		if open := strings.LastIndex(trimmed, "["); open > 0 && trimmed[open-1] == ' ' {
			code := trimmed[open+1 : len(trimmed)-1]
			if code != "" && !strings.ContainsAny(code, " []") {
				return strings.TrimRight(trimmed[:open], " "), diag.Code(code)
			}
		}
	}
	return trimmed, "mypy"
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
