package linters

import (
	"testing"

	"pybridge/internal/diag"
)

func TestMypyParse(t *testing.T) {
	doc := createDoc("app.py", "x: int = 'a'\n")
	raw := []byte("app.py:1:10: error: Incompatible types in assignment  [assignment]\n" +
		"app.py:2:1: note: See docs\n" +
		"app.py:3: warning: no column here\n")

	out := (&Mypy{}).Parse(raw, doc)
	if len(out) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(out))
	}

	first := out[0]
	if first.Severity != diag.SevError {
		t.Errorf("severity = %v, want Error", first.Severity)
	}
	if first.Code != "assignment" {
		t.Errorf("code = %q, want %q", first.Code, "assignment")
	}
	if first.Message != "Incompatible types in assignment" {
		t.Errorf("message = %q (code marker must be stripped)", first.Message)
	}
	if first.Range.Start.Line != 1 || first.Range.Start.Col != 9 {
		t.Errorf("start = %d:%d, want 1:9", first.Range.Start.Line, first.Range.Start.Col)
	}

	if out[1].Severity != diag.SevInfo {
		t.Errorf("note severity = %v, want Info", out[1].Severity)
	}
	if out[1].Code != "mypy" {
		t.Errorf("code without marker = %q, want %q", out[1].Code, "mypy")
	}

	// строка без колонки: позиция прижата к нулю
	if out[2].Range.Start.Line != 3 || out[2].Range.Start.Col != 0 {
		t.Errorf("columnless start = %d:%d, want 3:0", out[2].Range.Start.Line, out[2].Range.Start.Col)
	}
	if out[2].Severity != diag.SevWarning {
		t.Errorf("warning severity = %v", out[2].Severity)
	}
}

func TestMypyIgnoresGarbage(t *testing.T) {
	doc := createDoc("app.py", "x = 1\n")
	out := (&Mypy{}).Parse([]byte("Traceback (most recent call last):\n  boom\n"), doc)
	if len(out) != 0 {
		t.Fatalf("expected no diagnostics, got %d", len(out))
	}
}

func TestSplitMypyCode(t *testing.T) {
	cases := []struct {
		in       string
		wantMsg  string
		wantCode diag.Code
	}{
		{"Bad thing  [return-value]", "Bad thing", "return-value"},
		{"No marker here", "No marker here", "mypy"},
		{"Array access a[0]", "Array access a[0]", "mypy"},
		{"Trailing bracket]", "Trailing bracket]", "mypy"},
	}
	for _, tc := range cases {
		msg, code := splitMypyCode(tc.in)
		if msg != tc.wantMsg || code != tc.wantCode {
			t.Errorf("splitMypyCode(%q) = (%q, %q), want (%q, %q)", tc.in, msg, code, tc.wantMsg, tc.wantCode)
		}
	}
}
