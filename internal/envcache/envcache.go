// Package envcache persists resolved Python environments between runs.
//
// Resolution shells out to pipenv/poetry and the interpreter itself, which
// is slow enough to be worth skipping when nothing changed. Entries are
// keyed by a digest of (workspace root, configured interpreter path) and
// dropped wholesale on schema changes.
package envcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"pybridge/internal/pyenv"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// Digest identifies one cache entry.
type Digest [32]byte

// Key derives the cache digest for a workspace and its configured path.
func Key(workspaceRoot, configuredPath string) Digest {
	h := sha256.New()
	h.Write([]byte(workspaceRoot))
	h.Write([]byte{0})
	h.Write([]byte(configuredPath))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Payload is the cached environment record.
type Payload struct {
	Schema           uint16
	Path             string
	Probe            string
	Validated        bool
	SitePackages     []string
	UserSitePackages string
	ResolvedAt       int64 // unix seconds
}

// FromInterpreter builds a Payload from a resolution result.
func FromInterpreter(interp pyenv.Interpreter) *Payload {
	return &Payload{
		Schema:           schemaVersion,
		Path:             interp.Path,
		Probe:            interp.Probe,
		Validated:        interp.Validated,
		SitePackages:     interp.SitePackages,
		UserSitePackages: interp.UserSitePackages,
		ResolvedAt:       time.Now().Unix(),
	}
}

// Interpreter converts a Payload back into a resolution result.
func (p *Payload) Interpreter() pyenv.Interpreter {
	return pyenv.Interpreter{
		Path:             p.Path,
		Probe:            p.Probe,
		Validated:        p.Validated,
		SitePackages:     p.SitePackages,
		UserSitePackages: p.UserSitePackages,
	}
}

// Cache хранит сериализованные окружения на диске. Thread-safe.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes the cache at the standard location
// ($XDG_CACHE_HOME/<app> or ~/.cache/<app>).
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenDir initializes the cache at an explicit directory (tests).
func OpenDir(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Подкаталог "envs" — для удобства очистки.
	return filepath.Join(c.dir, "envs", hexKey+".mp")
}

// Put serializes and writes a payload. Best-effort callers may ignore the
// returned error; a failed write only costs a future re-resolution.
func (c *Cache) Put(key Digest, payload *Payload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. Missing entries and schema mismatches are misses,
// not errors.
func (c *Cache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", p, err)
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
