// Package testkit holds shared test doubles, chiefly a scripted
// stand-in for spawning external tools.
package testkit

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"pybridge/internal/execx"
)

// Call records one subprocess invocation seen by the script runner.
type Call struct {
	Path  string
	Args  []string
	Dir   string
	Stdin []byte
}

// Response is the canned result for one tool.
type Response struct {
	Stdout    []byte
	Stderr    []byte
	ExitCode  int
	Cancelled bool
	Err       error
}

// ScriptRunner implements execx.Runner with canned responses keyed by the
// executable's base name. Unknown tools fail with a spawn error, matching
// a missing binary. Safe for concurrent use.
type ScriptRunner struct {
	mu sync.Mutex

	// Responses maps base names ("ruff", "python") to canned results.
	Responses map[string]Response
	// Executables maps names to absolute paths for LookPath.
	Executables map[string]string

	calls []Call
}

func (s *ScriptRunner) Run(ctx context.Context, req execx.Request) (execx.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Path:  req.Path,
		Args:  append([]string(nil), req.Args...),
		Dir:   req.Dir,
		Stdin: append([]byte(nil), req.Stdin...),
	})
	resp, ok := s.Responses[filepath.Base(req.Path)]
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return execx.Result{Cancelled: true}, nil
	}
	if !ok {
		return execx.Result{}, fmt.Errorf("exec %q: no such file or directory", req.Path)
	}
	if resp.Err != nil {
		return execx.Result{}, resp.Err
	}
	return execx.Result{
		Stdout:    resp.Stdout,
		Stderr:    resp.Stderr,
		ExitCode:  resp.ExitCode,
		Cancelled: resp.Cancelled,
	}, nil
}

func (s *ScriptRunner) LookPath(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path, ok := s.Executables[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// Calls returns a copy of the recorded invocations in order.
func (s *ScriptRunner) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor filters recorded calls by executable base name.
func (s *ScriptRunner) CallsFor(name string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if filepath.Base(c.Path) == name {
			out = append(out, c)
		}
	}
	return out
}
