// Package execx wraps external process invocation behind a small interface
// so the resolver and tool adapters can be tested without spawning anything.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Request describes one external process invocation.
type Request struct {
	Path  string   // executable path or bare command name
	Args  []string // arguments, argv[0] excluded
	Dir   string   // working directory; empty means inherit
	Env   []string // extra environment entries appended to the inherited set
	Stdin []byte   // streamed to the process when non-nil
}

// Result captures the outcome of a finished or cancelled invocation.
type Result struct {
	Stdout    []byte
	Stderr    []byte
	ExitCode  int
	Cancelled bool
}

// Runner executes external processes. Implementations must terminate the
// process when ctx is cancelled and report Cancelled instead of an error.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
	LookPath(name string) (string, error)
}

// System is the Runner backed by os/exec.
type System struct {
	// KillDelay bounds how long Wait blocks after ctx cancellation before
	// the process is killed outright. Zero means one second.
	KillDelay time.Duration
}

func (s System) Run(ctx context.Context, req Request) (Result, error) {
	cmd := exec.CommandContext(ctx, req.Path, req.Args...)
	cmd.Dir = req.Dir
	if len(req.Env) > 0 {
		cmd.Env = append(cmd.Environ(), req.Env...)
	}
	if req.Stdin != nil {
		cmd.Stdin = bytes.NewReader(req.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	delay := s.KillDelay
	if delay == 0 {
		delay = time.Second
	}
	cmd.WaitDelay = delay

	err := cmd.Run()

	res := Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if ctx.Err() != nil {
		// Процесс убит по отмене: это не ошибка вызова.
		res.Cancelled = true
		return res, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

func (s System) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
