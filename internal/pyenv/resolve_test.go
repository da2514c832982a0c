package pyenv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pybridge/internal/testkit"
)

// makeVenv lays out a minimal virtualenv under dir: pyvenv.cfg plus bin/python.
func makeVenv(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pyvenv.cfg"), []byte("home = /usr/bin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	python := filepath.Join(dir, "bin", "python")
	if err := os.WriteFile(python, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return python
}

// makePrefix lays out an environment prefix with bin/python but no pyvenv.cfg.
func makePrefix(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	python := filepath.Join(dir, "bin", "python")
	if err := os.WriteFile(python, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return python
}

func validatingRunner() *testkit.ScriptRunner {
	return &testkit.ScriptRunner{Responses: map[string]testkit.Response{
		"python": {Stdout: []byte("1234\n")},
	}}
}

func TestVirtualEnvBeatsConda(t *testing.T) {
	venv := t.TempDir()
	conda := t.TempDir()
	venvPython := makeVenv(t, venv)
	makePrefix(t, conda)

	r := NewResolver(validatingRunner())
	env := Environ{"VIRTUAL_ENV": venv, "CONDA_PREFIX": conda}

	interp := r.Resolve(context.Background(), t.TempDir(), env, "")
	if interp.Probe != "virtualenv" {
		t.Fatalf("probe = %q, want virtualenv", interp.Probe)
	}
	if interp.Path != venvPython {
		t.Errorf("path = %q, want %q", interp.Path, venvPython)
	}
	if !interp.Validated {
		t.Error("expected validated interpreter")
	}
}

func TestVirtualEnvWithoutMarkerFallsToConda(t *testing.T) {
	venv := t.TempDir() // нет pyvenv.cfg
	conda := t.TempDir()
	condaPython := makePrefix(t, conda)

	r := NewResolver(validatingRunner())
	env := Environ{"VIRTUAL_ENV": venv, "CONDA_PREFIX": conda}

	interp := r.Resolve(context.Background(), t.TempDir(), env, "")
	if interp.Probe != "conda" {
		t.Fatalf("probe = %q, want conda", interp.Probe)
	}
	if interp.Path != condaPython {
		t.Errorf("path = %q, want %q", interp.Path, condaPython)
	}
}

// TestPyenvVersionHintFallsThrough: .python-version экспортирует подсказку,
// но не выбирает интерпретатор.
func TestPyenvVersionHintFallsThrough(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".python-version"), []byte("3.11.4\nextra\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := validatingRunner()
	runner.Executables = map[string]string{"python": "/usr/bin/python"}

	var hintKey, hintValue string
	r := NewResolver(runner, WithSetenv(func(key, value string) {
		hintKey, hintValue = key, value
	}))

	interp := r.Resolve(context.Background(), root, Environ{}, "")
	if hintKey != "PYENV_VERSION" || hintValue != "3.11.4" {
		t.Errorf("hint = %s=%s, want PYENV_VERSION=3.11.4", hintKey, hintValue)
	}
	if interp.Probe != "fallback" {
		t.Errorf("probe = %q, want fallback (hint must not match)", interp.Probe)
	}
	if interp.Path != "/usr/bin/python" {
		t.Errorf("path = %q, want looked-up fallback", interp.Path)
	}
}

func TestPipenvProbe(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Pipfile"), []byte("[packages]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := validatingRunner()
	runner.Responses["pipenv"] = testkit.Response{Stdout: []byte("/py/envs/app-x1/bin/python\n")}

	r := NewResolver(runner)
	interp := r.Resolve(context.Background(), root, Environ{}, "")
	if interp.Probe != "pipenv" {
		t.Fatalf("probe = %q, want pipenv", interp.Probe)
	}
	if interp.Path != "/py/envs/app-x1/bin/python" {
		t.Errorf("path = %q (stdout must be trimmed)", interp.Path)
	}

	calls := runner.CallsFor("pipenv")
	if len(calls) != 1 {
		t.Fatalf("expected one pipenv call, got %d", len(calls))
	}
	if calls[0].Args[0] != "--py" {
		t.Errorf("pipenv args = %v, want [--py]", calls[0].Args)
	}
	if calls[0].Dir != root {
		t.Errorf("pipenv dir = %q, want workspace root", calls[0].Dir)
	}
}

func TestPipenvFailureFallsThrough(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Pipfile"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := validatingRunner()
	runner.Responses["pipenv"] = testkit.Response{ExitCode: 1, Stderr: []byte("no virtualenv")}
	runner.Executables = map[string]string{"python": "/usr/bin/python"}

	interp := NewResolver(runner).Resolve(context.Background(), root, Environ{}, "")
	if interp.Probe != "fallback" {
		t.Fatalf("probe = %q, want fallback after pipenv failure", interp.Probe)
	}
}

func TestPoetryActivatedSelection(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "poetry.lock"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	envA := t.TempDir()
	envB := t.TempDir()
	makePrefix(t, envA)
	wantPython := makePrefix(t, envB)

	runner := validatingRunner()
	runner.Responses["poetry"] = testkit.Response{
		Stdout: []byte(envA + "\n" + envB + " (Activated)\n"),
	}

	interp := NewResolver(runner).Resolve(context.Background(), root, Environ{}, "")
	if interp.Probe != "poetry" {
		t.Fatalf("probe = %q, want poetry", interp.Probe)
	}
	if interp.Path != wantPython {
		t.Errorf("path = %q, want activated env %q", interp.Path, wantPython)
	}
}

func TestPoetryWithoutMarkerTakesLastEnv(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "poetry.lock"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	envA := t.TempDir()
	envB := t.TempDir()
	makePrefix(t, envA)
	wantPython := makePrefix(t, envB)

	runner := validatingRunner()
	runner.Responses["poetry"] = testkit.Response{Stdout: []byte(envA + "\n" + envB + "\n")}

	interp := NewResolver(runner).Resolve(context.Background(), root, Environ{}, "")
	if interp.Probe != "poetry" {
		t.Fatalf("probe = %q, want poetry", interp.Probe)
	}
	if interp.Path != wantPython {
		t.Errorf("path = %q, want last listed env %q", interp.Path, wantPython)
	}
}

func TestWorkspaceVenvProbe(t *testing.T) {
	root := t.TempDir()
	wantPython := makeVenv(t, filepath.Join(root, ".venv"))

	interp := NewResolver(validatingRunner()).Resolve(context.Background(), root, Environ{}, "")
	if interp.Probe != "workspace-venv" {
		t.Fatalf("probe = %q, want workspace-venv", interp.Probe)
	}
	if interp.Path != wantPython {
		t.Errorf("path = %q, want %q", interp.Path, wantPython)
	}
}

func TestFallbackLookupFailureKeepsConfigured(t *testing.T) {
	runner := &testkit.ScriptRunner{} // ни ответов, ни исполняемых файлов

	interp := NewResolver(runner).Resolve(context.Background(), t.TempDir(), Environ{}, "python3")
	if interp.Probe != "fallback" {
		t.Fatalf("probe = %q, want fallback", interp.Probe)
	}
	if interp.Path != "python3" {
		t.Errorf("path = %q, want raw configured value", interp.Path)
	}
	if interp.Validated {
		t.Error("unresolvable interpreter must not validate")
	}
}

func TestFallbackValidationRejectsWrongEcho(t *testing.T) {
	runner := &testkit.ScriptRunner{
		Responses:   map[string]testkit.Response{"python": {Stdout: []byte("boom\n")}},
		Executables: map[string]string{"python": "/usr/bin/python"},
	}

	interp := NewResolver(runner).Resolve(context.Background(), t.TempDir(), Environ{}, "python")
	if interp.Validated {
		t.Error("wrong echo must fail validation")
	}
	if interp.Path != "/usr/bin/python" {
		t.Errorf("path = %q, want looked-up path even when validation fails", interp.Path)
	}
}

func TestNeedsLookup(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"python", true},
		{"/usr/bin/python", false},
		{"python/python", true}, // вырожденный путь
		{"./venv/bin/python", false},
	}
	for _, tc := range cases {
		if got := needsLookup(tc.path); got != tc.want {
			t.Errorf("needsLookup(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestManagerCachesByConfiguredPath(t *testing.T) {
	runner := validatingRunner()
	runner.Executables = map[string]string{"python": "/usr/bin/python", "python3": "/usr/bin/python3"}
	m := NewManager(NewResolver(runner))
	root := t.TempDir()

	first := m.Interpreter(context.Background(), root, Environ{}, "python")
	callsAfterFirst := len(runner.Calls())

	second := m.Interpreter(context.Background(), root, Environ{}, "python")
	if len(runner.Calls()) != callsAfterFirst {
		t.Error("second lookup with same configured path must hit the cache")
	}
	if first.Path != second.Path {
		t.Errorf("cached path mismatch: %q vs %q", first.Path, second.Path)
	}

	// Смена настройки инвалидирует запись.
	third := m.Interpreter(context.Background(), root, Environ{}, "python3")
	if len(runner.Calls()) == callsAfterFirst {
		t.Error("changed configured path must force a re-resolve")
	}
	if third.Path != "/usr/bin/python3" {
		t.Errorf("path = %q, want /usr/bin/python3", third.Path)
	}

	m.Invalidate(root)
	callsBefore := len(runner.Calls())
	m.Interpreter(context.Background(), root, Environ{}, "python3")
	if len(runner.Calls()) == callsBefore {
		t.Error("invalidated entry must force a re-resolve")
	}
}
