package format

import (
	"context"
	"testing"

	"pybridge/internal/source"
	"pybridge/internal/testkit"
)

func formatDoc(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("app.py", []byte(content))
	return fs.Get(id)
}

func TestBlackProducesFullDocumentEdit(t *testing.T) {
	doc := formatDoc("x=1\n")
	runner := &testkit.ScriptRunner{Responses: map[string]testkit.Response{
		"black": {Stdout: []byte("x = 1\n")},
	}}

	f, ok := New("black")
	if !ok {
		t.Fatal("black not registered")
	}
	edit, changed, err := Run(context.Background(), runner, "black", f, doc, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !changed {
		t.Fatal("expected a formatting edit")
	}
	if edit.Span.Start != 0 || edit.Span.End != uint32(len(doc.Content)) {
		t.Errorf("span = [%d,%d), want full document", edit.Span.Start, edit.Span.End)
	}
	if edit.NewText != "x = 1\n" {
		t.Errorf("text = %q", edit.NewText)
	}

	calls := runner.CallsFor("black")
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	if string(calls[0].Stdin) != "x=1\n" {
		t.Errorf("stdin = %q", calls[0].Stdin)
	}
	last := calls[0].Args[len(calls[0].Args)-1]
	if last != "-" {
		t.Errorf("args = %v, want stdin marker last", calls[0].Args)
	}
}

func TestRunNoChangeWhenAlreadyFormatted(t *testing.T) {
	doc := formatDoc("x = 1\n")
	runner := &testkit.ScriptRunner{Responses: map[string]testkit.Response{
		"black": {Stdout: []byte("x = 1\n")},
	}}

	f, _ := New("black")
	_, changed, err := Run(context.Background(), runner, "black", f, doc, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if changed {
		t.Error("identical output must not produce an edit")
	}
}

func TestRunToolFailureIsSoft(t *testing.T) {
	doc := formatDoc("def broken(:\n")
	runner := &testkit.ScriptRunner{Responses: map[string]testkit.Response{
		"black": {ExitCode: 123, Stderr: []byte("cannot parse")},
	}}

	f, _ := New("black")
	_, changed, err := Run(context.Background(), runner, "black", f, doc, nil)
	if err != nil {
		t.Fatalf("non-zero exit must not error: %v", err)
	}
	if changed {
		t.Error("failed tool must not produce an edit")
	}
}

func TestRunSpawnFailureErrors(t *testing.T) {
	doc := formatDoc("x = 1\n")
	runner := &testkit.ScriptRunner{}

	f, _ := New("isort")
	_, _, err := Run(context.Background(), runner, "/missing/isort", f, doc, nil)
	if err == nil {
		t.Fatal("expected spawn error")
	}
}

func TestNewUnknownFormatter(t *testing.T) {
	if _, ok := New("yapf"); ok {
		t.Fatal("yapf is not a registered formatter")
	}
}
