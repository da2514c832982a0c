// Package pyenv locates the active Python interpreter for a workspace.
//
// Resolution walks an ordered chain of probes over the workspace root and an
// environment snapshot: virtualenv (VIRTUAL_ENV + pyvenv.cfg), conda
// (CONDA_PREFIX), a pyenv version hint (.python-version), pipenv (Pipfile),
// poetry (poetry.lock), and finally a scan for a workspace-local virtualenv
// directory. The first probe that produces an interpreter path wins. When no
// probe matches, the configured interpreter path is resolved through
// executable lookup and validated by running a trivial print statement.
//
// Every probe is best-effort: filesystem errors, subprocess failures, and
// panics are all treated as "no match" so resolution always terminates with
// something usable. Validation failure of the fallback is likewise non-fatal;
// the unvalidated path is still returned.
package pyenv
