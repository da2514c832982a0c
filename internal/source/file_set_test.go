package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNormalizesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("import os\r\nx = 1\r\n")...)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "import os\nx = 1\n" {
		t.Errorf("content = %q, want BOM stripped and CRLF normalised", f.Content)
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("CRLF flag not set")
	}
	if f.Flags&FileHadBOM == 0 {
		t.Error("BOM flag not set")
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := NewFileSet()
	if _, err := fs.Load(filepath.Join(t.TempDir(), "nope.py")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOffsetMapping(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("app.py", []byte("one\ntwo\nthree\n"))
	f := fs.Get(id)

	cases := []struct {
		line0, col0 uint32
		want        uint32
	}{
		{0, 0, 0},                                 // начало файла
		{0, 2, 2},                                 // внутри первой строки
		{1, 0, 4},                                 // начало "two"
		{2, 5, uint32(len("one\ntwo\nthree"))},    // клэмп к концу строки
		{1, 99, 7},                                // клэмп к \n после "two"
		{99, 0, uint32(len("one\ntwo\nthree\n"))}, // клэмп к концу файла
	}
	for _, tc := range cases {
		if got := f.Offset(tc.line0, tc.col0); got != tc.want {
			t.Errorf("Offset(%d,%d) = %d, want %d", tc.line0, tc.col0, got, tc.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("app.py", []byte("one\ntwo\nthree"))
	f := fs.Get(id)

	if got := f.GetLine(1); got != "one" {
		t.Errorf("line 1 = %q", got)
	}
	if got := f.GetLine(3); got != "three" {
		t.Errorf("line 3 = %q", got)
	}
	if got := f.GetLine(0); got != "" {
		t.Errorf("line 0 = %q, want empty", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Errorf("line 9 = %q, want empty", got)
	}
}

func TestResolveSpan(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("app.py", []byte("one\ntwo\nthree\n"))

	span := Span{File: id, Start: 4, End: 7} // "two"
	start, end := fs.Resolve(span)
	if start.Line != 2 || start.Col != 1 {
		t.Errorf("start = %d:%d, want 2:1", start.Line, start.Col)
	}
	if end.Line != 2 || end.Col != 4 {
		t.Errorf("end = %d:%d, want 2:4", end.Line, end.Col)
	}
}

func TestGetByPath(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("a.py", []byte("a = 1\n"))
	id := fs.AddVirtual("b.py", []byte("b = 2\n"))

	f, ok := fs.GetByPath("b.py")
	if !ok {
		t.Fatal("b.py not found")
	}
	if f.ID != id {
		t.Errorf("id = %d, want %d", f.ID, id)
	}
	if _, ok := fs.GetByPath("missing.py"); ok {
		t.Error("missing path must not resolve")
	}
}
