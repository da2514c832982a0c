package envcache

import (
	"os"
	"path/filepath"
	"testing"

	"pybridge/internal/pyenv"
)

func TestKeyDisambiguatesBoundary(t *testing.T) {
	// Разделитель не даёт склеить (root, path) по-разному.
	a := Key("/ws/app", "python")
	b := Key("/ws/apppython", "")
	if a == b {
		t.Fatal("digest collision across the root/path boundary")
	}
	if a != Key("/ws/app", "python") {
		t.Fatal("digest must be deterministic")
	}
}

func TestCacheRoundtrip(t *testing.T) {
	cache, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}

	interp := pyenv.Interpreter{
		Path:             "/ws/.venv/bin/python",
		Probe:            "virtualenv",
		Validated:        true,
		SitePackages:     []string{"/ws/.venv/lib/python3.11/site-packages"},
		UserSitePackages: "/home/u/.local/lib/python3.11/site-packages",
	}
	key := Key("/ws", "python")
	if err := cache.Put(key, FromInterpreter(interp)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var payload Payload
	hit, err := cache.Get(key, &payload)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	got := payload.Interpreter()
	if got.Path != interp.Path || got.Probe != interp.Probe || !got.Validated {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if len(got.SitePackages) != 1 || got.SitePackages[0] != interp.SitePackages[0] {
		t.Errorf("site packages mismatch: %v", got.SitePackages)
	}
	if payload.ResolvedAt == 0 {
		t.Error("ResolvedAt not stamped")
	}
}

func TestCacheMiss(t *testing.T) {
	cache, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var payload Payload
	hit, err := cache.Get(Key("/nowhere", ""), &payload)
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if hit {
		t.Fatal("unexpected hit")
	}
}

func TestCacheSchemaMismatchIsMiss(t *testing.T) {
	cache, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key("/ws", "python")
	payload := FromInterpreter(pyenv.Interpreter{Path: "/usr/bin/python"})
	payload.Schema = schemaVersion + 1
	if err := cache.Put(key, payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var out Payload
	hit, err := cache.Get(key, &out)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Fatal("future schema must read as a miss")
	}
}

func TestDropAll(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	key := Key("/ws", "python")
	if err := cache.Put(key, FromInterpreter(pyenv.Interpreter{Path: "/usr/bin/python"})); err != nil {
		t.Fatal(err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll failed: %v", err)
	}
	if _, err := os.Stat(cache.Dir()); !os.IsNotExist(err) {
		t.Errorf("cache dir still present after DropAll: %v", err)
	}

	var out Payload
	hit, err := cache.Get(key, &out)
	if err != nil || hit {
		t.Errorf("Get after DropAll = (%v, %v), want miss", hit, err)
	}

	// Повторный сброс пустого кэша безопасен.
	if err := cache.DropAll(); err != nil {
		t.Fatalf("second DropAll failed: %v", err)
	}
}
