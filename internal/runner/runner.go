// Package runner orchestrates lint requests: it resolves the workspace
// environment, picks the enabled tool adapters, streams documents to them,
// and merges the per-tool diagnostic bags.
package runner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pybridge/internal/config"
	"pybridge/internal/diag"
	"pybridge/internal/execx"
	"pybridge/internal/linters"
	"pybridge/internal/pyenv"
	"pybridge/internal/source"
)

// Options configure one lint request.
type Options struct {
	// MaxDiagnostics bounds the bag per file.
	MaxDiagnostics int
	// Jobs bounds directory-lint parallelism; 0 means GOMAXPROCS.
	Jobs int
	// Tools overrides the config-selected adapters when non-empty.
	Tools []string
	// Progress receives per-file events; nil disables reporting.
	Progress ProgressSink
}

// Result holds the diagnostics produced for one file.
type Result struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
}

// Runner executes lint requests against a workspace.
type Runner struct {
	registry *config.Registry
	manager  *pyenv.Manager
	exec     execx.Runner
	debugw   io.Writer

	subMu sync.Mutex
	subs  map[string]*config.Subscription
}

// New constructs a Runner. All collaborators are explicit; there is no
// process-wide state.
func New(registry *config.Registry, manager *pyenv.Manager, exec execx.Runner, debugw io.Writer) *Runner {
	return &Runner{
		registry: registry,
		manager:  manager,
		exec:     exec,
		debugw:   debugw,
		subs:     make(map[string]*config.Subscription),
	}
}

// Settings returns the workspace settings for root. On first access the
// runner subscribes to config changes so a manifest reload drops the
// cached interpreter for that workspace.
func (r *Runner) Settings(root string) (*config.Settings, error) {
	settings, err := r.registry.Get(root)
	if err != nil {
		return nil, err
	}

	key := settings.Root()
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if _, ok := r.subs[key]; !ok {
		r.subs[key] = settings.Subscribe(func(config.Config) {
			r.manager.Invalidate(key)
		})
	}
	return settings, nil
}

// Close detaches every config subscription the runner holds.
func (r *Runner) Close() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, sub := range r.subs {
		sub.Close()
	}
	r.subs = make(map[string]*config.Subscription)
}

// Environment resolves workspace settings and the active interpreter for
// a path. The workspace root is the directory itself for directories, the
// containing directory for files.
func (r *Runner) Environment(ctx context.Context, path string) (*config.Settings, pyenv.Interpreter, error) {
	root := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		root = filepath.Dir(path)
	}
	settings, err := r.Settings(root)
	if err != nil {
		return nil, pyenv.Interpreter{}, err
	}
	cfg := settings.Config()
	interp := r.manager.Interpreter(ctx, settings.Root(), pyenv.OSEnviron(), cfg.Python.Path)
	return settings, interp, nil
}

// LintFile lints a single document with every selected tool.
func (r *Runner) LintFile(ctx context.Context, path string, opts Options) (*source.FileSet, Result, error) {
	settings, interp, err := r.Environment(ctx, path)
	if err != nil {
		return nil, Result{}, err
	}

	fileSet := source.NewFileSetWithBase(settings.Root())
	fileID, err := fileSet.Load(path)
	if err != nil {
		return nil, Result{}, err
	}

	res := r.lintOne(ctx, fileSet, fileID, settings.Config(), interp, opts)
	return fileSet, res, nil
}

// LintDir lints every Python file under dir with a bounded worker pool.
// Results come back in deterministic path order regardless of scheduling.
func (r *Runner) LintDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []Result, error) {
	settings, interp, err := r.Environment(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	cfg := settings.Config()

	files, err := ListPyFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// Предзагружаем файлы последовательно: FileSet не потокобезопасен.
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		fileID, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			// Регистрируем пустой документ: диагностика об ошибке чтения
			// должна ссылаться на валидный FileID, иначе рендеры падают.
			fileIDs[path] = fileSet.AddVirtual(path, nil)
			continue
		}
		fileIDs[path] = fileID
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, hadError := loadErrors[path]; hadError {
				bag := diag.NewBag(maxDiagnostics(opts))
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     "io-error",
					Source:   "pybridge",
					File:     fileIDs[path],
					Message:  "failed to load file: " + loadErr.Error(),
				})
				results[i] = Result{Path: path, FileID: fileIDs[path], Bag: bag}
				emit(opts.Progress, Event{File: path, Stage: StageLint, Status: StatusError, Err: loadErr})
				return nil
			}

			results[i] = r.lintOne(gctx, fileSet, fileIDs[path], cfg, interp, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, nil, err
	}
	return fileSet, results, nil
}

// lintOne runs every selected adapter over one document. Each tool owns
// its own subprocess; a tool failure degrades to zero diagnostics from
// that tool rather than failing the request.
func (r *Runner) lintOne(ctx context.Context, fileSet *source.FileSet, fileID source.FileID, cfg config.Config, interp pyenv.Interpreter, opts Options) Result {
	doc := fileSet.Get(fileID)
	bag := diag.NewBag(maxDiagnostics(opts))
	res := Result{Path: doc.Path, FileID: fileID, Bag: bag}

	start := time.Now()
	emit(opts.Progress, Event{File: doc.Path, Stage: StageLint, Status: StatusWorking})

	for _, id := range r.selectTools(cfg, opts) {
		lint, ok := linters.New(id, linters.Options{DebugWriter: r.debugw})
		if !ok {
			continue
		}
		tool, _ := cfg.LinterTool(id)
		path := r.ToolPath(interp, tool.PathOr(id))
		if err := linters.Invoke(ctx, r.exec, path, lint, doc, bag); err != nil {
			// Спавн не удался: инструмент не установлен или путь кривой.
			r.logf("%s: %v", doc.Path, err)
			emit(opts.Progress, Event{File: doc.Path, Tool: id, Stage: StageLint, Status: StatusError, Err: err})
		}
	}

	bag.Sort()
	bag.Dedup()
	emit(opts.Progress, Event{File: doc.Path, Stage: StageLint, Status: StatusDone, Elapsed: time.Since(start)})
	return res
}

func (r *Runner) selectTools(cfg config.Config, opts Options) []string {
	if len(opts.Tools) > 0 {
		return opts.Tools
	}
	return cfg.EnabledLinters()
}

// ToolPath resolves a configured tool path against the active environment:
// bare names are first looked up next to the resolved interpreter (the
// venv bin directory), so an activated environment's tools win over
// whatever happens to be on PATH.
func (r *Runner) ToolPath(interp pyenv.Interpreter, configured string) string {
	if strings.ContainsRune(configured, os.PathSeparator) || strings.ContainsRune(configured, '/') {
		return configured
	}
	if interp.Path != "" {
		candidate := filepath.Join(filepath.Dir(interp.Path), configured)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return configured
}

func (r *Runner) logf(format string, args ...any) {
	if r.debugw == nil {
		return
	}
	fmt.Fprintf(r.debugw, "runner: "+format+"\n", args...)
}

func maxDiagnostics(opts Options) int {
	if opts.MaxDiagnostics > 0 {
		return opts.MaxDiagnostics
	}
	return 100
}

// ListPyFiles returns all *.py files under dir in sorted order, skipping
// hidden directories, __pycache__, and virtualenv directories.
func ListPyFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "__pycache__" {
				return fs.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, "pyvenv.cfg")); err == nil {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
