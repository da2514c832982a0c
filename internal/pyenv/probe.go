package pyenv

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// probe is one strategy step attempting to locate an interpreter.
// It returns the interpreter path and whether the probe matched.
type probe struct {
	name string
	run  func(ctx context.Context, root string, env Environ) (string, bool)
}

// probes returns the chain in priority order. The order is a contract:
// an activated virtualenv always beats conda, which beats project markers.
func (r *Resolver) probes() []probe {
	return []probe{
		{name: "virtualenv", run: r.probeVirtualEnv},
		{name: "conda", run: r.probeConda},
		{name: "pyenv-version", run: r.probePyenvVersion},
		{name: "pipenv", run: r.probePipenv},
		{name: "poetry", run: r.probePoetry},
		{name: "workspace-venv", run: r.probeWorkspaceVenv},
	}
}

// runProbe executes one probe, converting panics into "no match".
// Probes talk to the filesystem and spawn processes; nothing they hit is
// allowed to abort resolution.
func (r *Resolver) runProbe(ctx context.Context, p probe, root string, env Environ) (path string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.debugf("probe %s panicked: %v", p.name, rec)
			path, ok = "", false
		}
	}()
	return p.run(ctx, root, env)
}

// binPython returns the interpreter location under an environment prefix,
// if the file exists.
func binPython(prefix string) (string, bool) {
	var candidate string
	if runtime.GOOS == "windows" {
		candidate = filepath.Join(prefix, "Scripts", "python.exe")
	} else {
		candidate = filepath.Join(prefix, "bin", "python")
	}
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, true
	}
	return "", false
}

func (r *Resolver) probeVirtualEnv(_ context.Context, _ string, env Environ) (string, bool) {
	venv := env.Get("VIRTUAL_ENV")
	if venv == "" {
		return "", false
	}
	if _, err := os.Stat(filepath.Join(venv, "pyvenv.cfg")); err != nil {
		return "", false
	}
	return binPython(venv)
}

func (r *Resolver) probeConda(_ context.Context, _ string, env Environ) (string, bool) {
	prefix := env.Get("CONDA_PREFIX")
	if prefix == "" {
		return "", false
	}
	return binPython(prefix)
}

// probePyenvVersion records the pinned pyenv version as an environment hint
// for downstream tools and deliberately reports no match, so resolution
// falls through to later probes and ultimately the configured fallback.
func (r *Resolver) probePyenvVersion(_ context.Context, root string, _ Environ) (string, bool) {
	content, err := os.ReadFile(filepath.Join(root, ".python-version"))
	if err != nil {
		return "", false
	}
	version := content
	if i := strings.IndexByte(string(content), '\n'); i >= 0 {
		version = content[:i]
	}
	v := strings.TrimSpace(string(version))
	if v != "" {
		r.setenv("PYENV_VERSION", v)
		r.debugf("pyenv version hint: %s", v)
	}
	return "", false
}

func (r *Resolver) probePipenv(ctx context.Context, root string, _ Environ) (string, bool) {
	if _, err := os.Stat(filepath.Join(root, "Pipfile")); err != nil {
		return "", false
	}
	out, ok := r.commandStdout(ctx, root, "pipenv", "--py")
	if !ok {
		return "", false
	}
	path := strings.TrimSpace(out)
	return path, path != ""
}

func (r *Resolver) probePoetry(ctx context.Context, root string, _ Environ) (string, bool) {
	if _, err := os.Stat(filepath.Join(root, "poetry.lock")); err != nil {
		return "", false
	}
	out, ok := r.commandStdout(ctx, root, "poetry", "env", "list", "--full-path", "--no-ansi")
	if !ok {
		return "", false
	}

	const marker = "(Activated)"
	var chosen string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, marker) {
			chosen = line
			break
		}
		// Без маркера берём последнюю из перечисленных сред.
		chosen = line
	}
	if chosen == "" {
		return "", false
	}
	chosen = strings.TrimSpace(strings.ReplaceAll(chosen, marker, ""))
	return binPython(chosen)
}

// probeWorkspaceVenv scans immediate subdirectories of the workspace for
// one holding a pyvenv.cfg, covering the common ".venv in repo" layout
// without requiring VIRTUAL_ENV to be exported.
func (r *Resolver) probeWorkspaceVenv(_ context.Context, root string, _ Environ) (string, bool) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		dir := filepath.Join(root, name)
		if _, err := os.Stat(filepath.Join(dir, "pyvenv.cfg")); err != nil {
			continue
		}
		if path, ok := binPython(dir); ok {
			return path, true
		}
	}
	return "", false
}

// commandStdout runs an auxiliary tool in the workspace root and returns
// its stdout. Spawn failures and non-zero exits are both "no output".
func (r *Resolver) commandStdout(ctx context.Context, dir, name string, args ...string) (string, bool) {
	res, err := r.runner.Run(ctx, execRequest(name, args, dir))
	if err != nil {
		r.debugf("%s: %v", name, err)
		return "", false
	}
	if res.Cancelled || res.ExitCode != 0 {
		return "", false
	}
	return string(res.Stdout), true
}
