package linters

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"pybridge/internal/diag"
	"pybridge/internal/source"
)

// Flake8 adapts flake8's default text output:
//
//	<file>:<row>:<col>: <CODE> <message>
//
// Columns are 1-based and normalised to 0-based starts. Syntax errors
// (E9xx) and undefined names (F8xx except the unused pair) are promoted
// to Error; everything else is a Warning.
type Flake8 struct {
	debugw io.Writer
}

func (*Flake8) ID() string { return "flake8" }

func (*Flake8) Args(stdinFilename string) []string {
	return []string{"--stdin-display-name", stdinFilename, "--exit-zero", "-"}
}

var flake8Line = regexp.MustCompile(`^(.+?):(\d+):(\d+):?\s+(\S+)\s+(.*)$`)

func (f *Flake8) Parse(raw []byte, doc *source.File) []diag.Diagnostic {
	var out []diag.Diagnostic
	bad := 0

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		m := flake8Line.FindStringSubmatch(line)
		if m == nil {
			bad++
			continue
		}
		row, col, ok := parsePosition(m[2], m[3])
		if !ok {
			bad++
			continue
		}
		if col > 0 {
			col--
		}
		code := m[4]
		rng := diag.Range{
			Start: diag.Pos{Line: row, Col: col},
			End:   diag.Pos{Line: row, Col: col},
		}
		d := diag.New(flake8Severity(code), diag.Code(code), "flake8", doc.ID, rng, m[5])
		if unnecessaryCodes[code] {
			d = d.WithTag(diag.TagUnnecessary)
		}
		out = append(out, d)
	}
	if bad > 0 {
		debugf(f.debugw, "flake8", "skipped %d unparseable lines", bad)
	}
	return out
}

func flake8Severity(code string) diag.Severity {
	if strings.HasPrefix(code, "E9") {
		return diag.SevError
	}
	if strings.HasPrefix(code, "F8") && !unnecessaryCodes[code] {
		return diag.SevError
	}
	return diag.SevWarning
}

// parsePosition converts textual row/col fields into uint32 values.
func parsePosition(rowStr, colStr string) (row, col uint32, ok bool) {
	r, err := strconv.ParseUint(rowStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	c, err := strconv.ParseUint(colStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	row, err = safecast.Conv[uint32](r)
	if err != nil {
		return 0, 0, false
	}
	col, err = safecast.Conv[uint32](c)
	if err != nil {
		return 0, 0, false
	}
	return row, col, true
}
