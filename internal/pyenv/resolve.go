package pyenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pybridge/internal/execx"
)

// Interpreter is a resolved Python interpreter for a workspace.
type Interpreter struct {
	// Path is the interpreter executable. Absolute when a probe or lookup
	// succeeded; may be the raw configured value when everything failed.
	Path string
	// Probe names the strategy that produced the path; "fallback" when the
	// configured path was used.
	Probe string
	// Validated reports whether the interpreter answered the print check.
	Validated bool
	// SitePackages holds site.getsitepackages() results; empty on failure.
	SitePackages []string
	// UserSitePackages holds site.getusersitepackages(); "" on failure.
	UserSitePackages string
}

// Resolver runs the probe chain. It is stateless; callers that want
// caching wrap it in a Manager.
type Resolver struct {
	runner execx.Runner
	debugw io.Writer
	setenv func(key, value string)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDebugWriter directs probe-failure logging to w.
func WithDebugWriter(w io.Writer) Option {
	return func(r *Resolver) { r.debugw = w }
}

// WithSetenv overrides the environment write used for the pyenv hint.
func WithSetenv(fn func(key, value string)) Option {
	return func(r *Resolver) { r.setenv = fn }
}

// NewResolver constructs a Resolver backed by the given process runner.
func NewResolver(runner execx.Runner, opts ...Option) *Resolver {
	r := &Resolver{
		runner: runner,
		setenv: func(key, value string) { _ = os.Setenv(key, value) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve determines the active interpreter for the workspace. It never
// returns an error: every failure degrades to the configured fallback, and
// a failed validation still yields the unvalidated path.
func (r *Resolver) Resolve(ctx context.Context, root string, env Environ, configured string) Interpreter {
	for _, p := range r.probes() {
		path, ok := r.runProbe(ctx, p, root, env)
		if !ok {
			continue
		}
		r.debugf("probe %s matched: %s", p.name, path)
		interp := Interpreter{Path: path, Probe: p.name, Validated: r.validate(ctx, path)}
		r.discoverSitePackages(ctx, &interp)
		return interp
	}

	path := r.lookupExecutable(configured)
	interp := Interpreter{Path: path, Probe: "fallback", Validated: r.validate(ctx, path)}
	if interp.Validated {
		r.discoverSitePackages(ctx, &interp)
	}
	return interp
}

// lookupExecutable resolves a configured interpreter value to an absolute
// executable path where possible. Bare command names ("python") and
// degenerate paths whose last two segments repeat ("python/python") go
// through PATH lookup; lookup failure keeps the original value.
func (r *Resolver) lookupExecutable(configured string) string {
	if configured == "" {
		configured = "python"
	}
	if !needsLookup(configured) {
		return configured
	}
	resolved, err := r.runner.LookPath(filepath.Base(configured))
	if err != nil {
		r.debugf("lookup %s: %v", configured, err)
		return configured
	}
	return resolved
}

func needsLookup(path string) bool {
	if !strings.ContainsRune(path, os.PathSeparator) && !strings.ContainsRune(path, '/') {
		return true
	}
	// Защита от вырожденных путей вида "python/python".
	dir := filepath.Dir(path)
	return filepath.Base(dir) == filepath.Base(path)
}

// validate runs the interpreter with a trivial print and checks the echo.
func (r *Resolver) validate(ctx context.Context, path string) bool {
	res, err := r.runner.Run(ctx, execRequest(path, []string{"-c", "print(1234)"}, ""))
	if err != nil {
		r.debugf("validate %s: %v", path, err)
		return false
	}
	if res.Cancelled || res.ExitCode != 0 {
		return false
	}
	return strings.TrimSpace(string(res.Stdout)) == "1234"
}

const (
	sitePackagesSnippet     = "import site; print('\\n'.join(site.getsitepackages()))"
	userSitePackagesSnippet = "import site; print(site.getusersitepackages())"
)

// discoverSitePackages asks the interpreter for its package directories.
// Failures leave the lists empty; they are bookkeeping, not a requirement.
func (r *Resolver) discoverSitePackages(ctx context.Context, interp *Interpreter) {
	if out, ok := r.interpreterStdout(ctx, interp.Path, sitePackagesSnippet); ok {
		for _, line := range strings.Split(out, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				interp.SitePackages = append(interp.SitePackages, line)
			}
		}
	}
	if out, ok := r.interpreterStdout(ctx, interp.Path, userSitePackagesSnippet); ok {
		interp.UserSitePackages = strings.TrimSpace(out)
	}
}

func (r *Resolver) interpreterStdout(ctx context.Context, path, snippet string) (string, bool) {
	res, err := r.runner.Run(ctx, execRequest(path, []string{"-c", snippet}, ""))
	if err != nil || res.Cancelled || res.ExitCode != 0 {
		if err != nil {
			r.debugf("interpreter %s: %v", path, err)
		}
		return "", false
	}
	return string(res.Stdout), true
}

func (r *Resolver) debugf(format string, args ...any) {
	if r.debugw == nil {
		return
	}
	fmt.Fprintf(r.debugw, "pyenv: "+format+"\n", args...)
}

func execRequest(path string, args []string, dir string) execx.Request {
	return execx.Request{Path: path, Args: args, Dir: dir}
}
