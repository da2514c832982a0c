package pyenv

import (
	"os"
	"strings"
)

// Environ is an immutable snapshot of environment variables taken at the
// start of a resolution. Probes read from the snapshot, never from the live
// process environment, so a resolution is reproducible.
type Environ map[string]string

// OSEnviron snapshots the current process environment.
func OSEnviron() Environ {
	raw := os.Environ()
	env := make(Environ, len(raw))
	for _, kv := range raw {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

// Get returns the value for key, or "" when unset.
func (e Environ) Get(key string) string {
	return e[key]
}
