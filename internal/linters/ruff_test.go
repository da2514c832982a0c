package linters

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"pybridge/internal/diag"
	"pybridge/internal/source"
	"pybridge/internal/testkit"
)

// helper to build a virtual document
func createDoc(name, content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(content))
	return fs.Get(id)
}

func TestRuffArgs(t *testing.T) {
	r := &Ruff{}
	got := r.Args("/ws/app.py")
	want := []string{"--format", "json", "--exit-zero", "--stdin-filename", "/ws/app.py", "-"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ruff args = %v, want %v", got, want)
	}
}

// TestRuffColumnMapping проверяет асимметрию колонок: старт нормализуется
// к 0-based, конец остаётся как в выводе инструмента.
func TestRuffColumnMapping(t *testing.T) {
	doc := createDoc("app.py", "import os\n")
	raw := []byte(`[{"code":"E501","message":"line too long","location":{"row":2,"column":5},"end_location":{"row":2,"column":9}}]`)

	r := &Ruff{}
	out := r.Parse(raw, doc)
	if len(out) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(out))
	}
	d := out[0]
	if d.Range.Start.Line != 2 || d.Range.Start.Col != 4 {
		t.Errorf("start = %d:%d, want 2:4", d.Range.Start.Line, d.Range.Start.Col)
	}
	if d.Range.End.Line != 2 || d.Range.End.Col != 9 {
		t.Errorf("end = %d:%d, want 2:9 (end column must not be shifted)", d.Range.End.Line, d.Range.End.Col)
	}
}

func TestRuffColumnZeroStaysZero(t *testing.T) {
	doc := createDoc("app.py", "x = 1\n")
	raw := []byte(`[{"code":"E101","message":"m","location":{"row":1,"column":0},"end_location":{"row":1,"column":0}}]`)

	out := (&Ruff{}).Parse(raw, doc)
	if len(out) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(out))
	}
	if out[0].Range.Start.Col != 0 {
		t.Errorf("start col = %d, want 0 (no underflow)", out[0].Range.Start.Col)
	}
}

func TestRuffSeverityAlwaysWarning(t *testing.T) {
	doc := createDoc("app.py", "import os\n")
	raw := []byte(`[
		{"code":"E902","message":"syntax error","location":{"row":1,"column":1},"end_location":{"row":1,"column":1}},
		{"code":"F401","message":"unused","location":{"row":1,"column":1},"end_location":{"row":1,"column":10}}
	]`)

	out := (&Ruff{}).Parse(raw, doc)
	if len(out) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(out))
	}
	for _, d := range out {
		if d.Severity != diag.SevWarning {
			t.Errorf("%s: severity = %v, want Warning", d.Code, d.Severity)
		}
	}
}

func TestRuffUnnecessaryTags(t *testing.T) {
	doc := createDoc("app.py", "import os\nx = 1\n")
	raw := []byte(`[
		{"code":"F401","message":"os imported but unused","location":{"row":1,"column":8},"end_location":{"row":1,"column":10}},
		{"code":"F841","message":"local variable x is assigned to but never used","location":{"row":2,"column":1},"end_location":{"row":2,"column":2}},
		{"code":"E501","message":"line too long","location":{"row":2,"column":1},"end_location":{"row":2,"column":2}}
	]`)

	out := (&Ruff{}).Parse(raw, doc)
	if len(out) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(out))
	}
	if !out[0].HasTag(diag.TagUnnecessary) {
		t.Error("F401 should carry the unnecessary tag")
	}
	if !out[1].HasTag(diag.TagUnnecessary) {
		t.Error("F841 should carry the unnecessary tag")
	}
	if out[2].HasTag(diag.TagUnnecessary) {
		t.Error("E501 must not carry the unnecessary tag")
	}
}

// TestRuffUnparseableOutput: мусор на stdout не роняет адаптер.
func TestRuffUnparseableOutput(t *testing.T) {
	doc := createDoc("app.py", "x = 1\n")
	var debugw bytes.Buffer
	r := &Ruff{debugw: &debugw}

	out := r.Parse([]byte("ruff exploded: traceback follows"), doc)
	if len(out) != 0 {
		t.Fatalf("expected no diagnostics, got %d", len(out))
	}
	if debugw.Len() == 0 {
		t.Error("expected a debug log line for unparseable output")
	}
}

func TestRuffEmptyOutput(t *testing.T) {
	doc := createDoc("app.py", "x = 1\n")
	out := (&Ruff{}).Parse([]byte("[]"), doc)
	if len(out) != 0 {
		t.Fatalf("expected no diagnostics, got %d", len(out))
	}
}

// TestRuffFixRowMapping проверяет перевод fix-записи в байтовый диапазон:
// локации (3,0)-(4,0) покрывают третью строку целиком.
func TestRuffFixRowMapping(t *testing.T) {
	content := "line one\nline two\nline three\nline four\n"
	doc := createDoc("app.py", content)
	raw := []byte(`[{"code":"F401","message":"unused","location":{"row":3,"column":1},"end_location":{"row":3,"column":5},
		"fix":{"content":"","message":"Remove unused import","location":{"row":3,"column":0},"end_location":{"row":4,"column":0}}}]`)

	out := (&Ruff{}).Parse(raw, doc)
	if len(out) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(out))
	}
	fixes := out[0].Fixes
	if len(fixes) != 1 || len(fixes[0].Edits) != 1 {
		t.Fatalf("expected exactly one fix with one edit, got %+v", fixes)
	}
	edit := fixes[0].Edits[0]

	wantStart := uint32(len("line one\nline two\n"))
	wantEnd := uint32(len("line one\nline two\nline three\n"))
	if edit.Span.Start != wantStart || edit.Span.End != wantEnd {
		t.Errorf("fix span = [%d,%d), want [%d,%d)", edit.Span.Start, edit.Span.End, wantStart, wantEnd)
	}
	if edit.NewText != "" {
		t.Errorf("fix text = %q, want empty (deletion)", edit.NewText)
	}
	if fixes[0].Title != "Remove unused import" {
		t.Errorf("fix title = %q", fixes[0].Title)
	}
}

func TestInvokeStreamsStdin(t *testing.T) {
	doc := createDoc("app.py", "import os\n")
	runner := &testkit.ScriptRunner{Responses: map[string]testkit.Response{
		"ruff": {Stdout: []byte(`[{"code":"F401","message":"unused","location":{"row":1,"column":8},"end_location":{"row":1,"column":10}}]`)},
	}}
	bag := diag.NewBag(10)

	if err := Invoke(context.Background(), runner, "ruff", &Ruff{}, doc, bag); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", bag.Len())
	}
	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 subprocess call, got %d", len(calls))
	}
	if !bytes.Equal(calls[0].Stdin, doc.Content) {
		t.Errorf("stdin = %q, want document content", calls[0].Stdin)
	}
}

// TestInvokeCancelled: отмена даёт ноль диагностик и ноль ошибок.
func TestInvokeCancelled(t *testing.T) {
	doc := createDoc("app.py", "import os\n")
	runner := &testkit.ScriptRunner{Responses: map[string]testkit.Response{
		"ruff": {Cancelled: true},
	}}
	bag := diag.NewBag(10)

	if err := Invoke(context.Background(), runner, "ruff", &Ruff{}, doc, bag); err != nil {
		t.Fatalf("cancelled run must not error, got %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("cancelled run must yield no diagnostics, got %d", bag.Len())
	}
}

func TestInvokeSpawnError(t *testing.T) {
	doc := createDoc("app.py", "x = 1\n")
	runner := &testkit.ScriptRunner{}
	bag := diag.NewBag(10)

	err := Invoke(context.Background(), runner, "/missing/ruff", &Ruff{}, doc, bag)
	if err == nil {
		t.Fatal("expected spawn error")
	}
	if bag.Len() != 0 {
		t.Fatalf("spawn failure must yield no diagnostics, got %d", bag.Len())
	}
}

func TestInvokeRespectsBagLimit(t *testing.T) {
	doc := createDoc("app.py", "import os\n")
	raw := []byte(`[
		{"code":"E1","message":"a","location":{"row":1,"column":1},"end_location":{"row":1,"column":1}},
		{"code":"E2","message":"b","location":{"row":2,"column":1},"end_location":{"row":2,"column":1}},
		{"code":"E3","message":"c","location":{"row":3,"column":1},"end_location":{"row":3,"column":1}}
	]`)
	runner := &testkit.ScriptRunner{Responses: map[string]testkit.Response{
		"ruff": {Stdout: raw},
	}}
	bag := diag.NewBag(2)

	if err := Invoke(context.Background(), runner, "ruff", &Ruff{}, doc, bag); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if bag.Len() != 2 {
		t.Fatalf("expected bag capped at 2, got %d", bag.Len())
	}
}
