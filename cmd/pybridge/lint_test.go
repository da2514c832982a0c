package main

import (
	"testing"

	"pybridge/internal/diag"
)

func warnAt(line uint32) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     "F401",
		Source:   "ruff",
		Message:  "'os' imported but unused",
		Range:    diag.Range{Start: diag.Pos{Line: line, Col: 0}, End: diag.Pos{Line: line, Col: 2}},
	}
}

// Merge по каталогу растит ёмкость мешка сверх лимита запроса; filterBag
// обязан вернуть лимит даже без warning-флагов.
func TestFilterBagCapsMergedDiagnostics(t *testing.T) {
	bag := diag.NewBag(2)
	bag.Add(warnAt(1))
	bag.Add(warnAt(2))
	other := diag.NewBag(2)
	other.Add(warnAt(3))
	other.Add(warnAt(4))
	bag.Merge(other)
	if bag.Len() != 4 {
		t.Fatalf("merged bag = %d, want 4", bag.Len())
	}

	out := filterBag(bag, false, false, 2)
	if out.Len() != 2 {
		t.Fatalf("filtered bag = %d, want 2", out.Len())
	}
	// Первые по порядку находки переживают срез.
	if out.Items()[0].Range.Start.Line != 1 || out.Items()[1].Range.Start.Line != 2 {
		t.Errorf("kept lines = %d, %d", out.Items()[0].Range.Start.Line, out.Items()[1].Range.Start.Line)
	}
}

func TestFilterBagNoWarnings(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(warnAt(1))
	err := warnAt(2)
	err.Severity = diag.SevError
	bag.Add(err)

	out := filterBag(bag, true, false, 10)
	if out.Len() != 1 || out.Items()[0].Severity != diag.SevError {
		t.Fatalf("filtered bag = %+v", out.Items())
	}
}

func TestFilterBagWarningsAsErrors(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(warnAt(1))

	out := filterBag(bag, false, true, 10)
	if out.Len() != 1 {
		t.Fatalf("filtered bag = %d, want 1", out.Len())
	}
	if out.Items()[0].Severity != diag.SevError {
		t.Errorf("severity = %v, want error", out.Items()[0].Severity)
	}
	if !out.HasErrors() {
		t.Error("escalated bag must report errors")
	}
}
