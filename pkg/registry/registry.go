package registry

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/bmatcuk/doublestar/v4"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// libraryPattern matches every definition file below the library root.
const libraryPattern = "**/*.{json,yaml,yml}"

// LoadReport describes the outcome of the one-time load.
type LoadReport struct {
	Builtins []string
	Loaded   []string
	// Failed maps a definition path (relative to the root) to the reason it was skipped.
	Failed map[string]error
}

// Registry is the immutable catalog of module templates.
type Registry struct {
	root     string
	fsys     fs.FS
	logger   *slog.Logger
	builtins bool
	extra    []*module.Module

	mu      sync.Mutex
	ready   atomic.Bool
	modules map[string]*module.Module
	report  LoadReport
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger used to report skipped definitions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithFS reads the library from fsys instead of the directory passed to New.
func WithFS(fsys fs.FS) Option {
	return func(r *Registry) {
		r.fsys = fsys
	}
}

// WithoutBuiltins skips the embedded built-in modules.
func WithoutBuiltins() Option {
	return func(r *Registry) {
		r.builtins = false
	}
}

// WithBuiltin registers a module built in Go under its own key, before the library is read.
func WithBuiltin(m *module.Module) Option {
	return func(r *Registry) {
		r.extra = append(r.extra, m)
	}
}

// New creates a registry over the module library at root. Nothing is read until
// the first call to Load or to any lookup.
func New(root string, opts ...Option) *Registry {
	r := &Registry{
		root:     root,
		builtins: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Load builds the catalog. Only the first successful call does any work;
// concurrent callers wait for it. A load that fails (a cancelled context, an
// unreadable library) publishes nothing and is retried by the next call.
func (r *Registry) Load(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready.Load() {
		return nil
	}

	c, err := r.build(ctx)
	if err != nil {
		return err
	}
	r.modules, r.report = c.modules, c.report
	r.ready.Store(true)
	return nil
}

// Get returns the module registered under a built-in name or a library path.
// When the catalog cannot be built, the load error is returned instead.
func (r *Registry) Get(key string) (*module.Module, error) {
	if err := r.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("module %q: %w", key, err)
	}
	m, ok := r.modules[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrModuleNotFound, key)
	}
	return m, nil
}

// ListTopLevel returns every module that is not a submodule, sorted by key.
// It is empty when the catalog cannot be built.
func (r *Registry) ListTopLevel() []*module.Module {
	if r.Load(context.Background()) != nil {
		return nil
	}
	out := make([]*module.Module, 0, len(r.modules))
	for _, key := range r.sortedKeys() {
		if m := r.modules[key]; !m.Submodule() {
			out = append(out, m)
		}
	}
	return out
}

// ListNames returns every key, submodules included, sorted.
// It is empty when the catalog cannot be built.
func (r *Registry) ListNames() []string {
	if r.Load(context.Background()) != nil {
		return nil
	}
	return r.sortedKeys()
}

// Report returns the outcome of the load.
func (r *Registry) Report() LoadReport {
	if r.Load(context.Background()) != nil {
		return LoadReport{}
	}
	return r.report
}

func (r *Registry) sortedKeys() []string {
	keys := make([]string, 0, len(r.modules))
	for k := range r.modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// catalog is a load in progress. It becomes the registry's state only once complete.
type catalog struct {
	logger  *slog.Logger
	modules map[string]*module.Module
	report  LoadReport
}

func (r *Registry) build(ctx context.Context) (*catalog, error) {
	c := &catalog{
		logger:  r.logger,
		modules: make(map[string]*module.Module),
		report:  LoadReport{Failed: make(map[string]error)},
	}

	if r.builtins {
		c.loadBuiltins()
	}
	for _, m := range r.extra {
		if c.register(m.Key(), m) {
			c.report.Builtins = append(c.report.Builtins, m.Key())
		}
	}

	fsys, err := r.library()
	if err != nil {
		r.logger.Warn("module library unavailable, using built-ins only", "root", r.root, "err", err)
		c.logLoaded()
		return c, nil
	}

	files, err := doublestar.Glob(fsys, libraryPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan module library %s: %w", r.root, err)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := strings.TrimSuffix(file, path.Ext(file))
		m, err := loadFile(fsys, file, key)
		if err != nil {
			c.skip(file, err)
			continue
		}
		if !c.register(key, m) {
			c.skip(file, fmt.Errorf("key %q is already registered", key))
			continue
		}
		c.report.Loaded = append(c.report.Loaded, key)
	}

	c.logLoaded()
	return c, nil
}

func (r *Registry) library() (fs.FS, error) {
	if r.fsys != nil {
		return r.fsys, nil
	}
	info, err := os.Stat(r.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", r.root)
	}
	return os.DirFS(r.root), nil
}

func (c *catalog) loadBuiltins() {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		c.logger.Error("failed to read built-in modules", "err", err)
		return
	}
	for _, e := range entries {
		file := "builtin/" + e.Name()
		data, err := fs.ReadFile(builtinFS, file)
		if err != nil {
			c.skip(file, err)
			continue
		}
		def, err := module.Parse(data, module.FormatYAML)
		if err != nil {
			c.skip(file, err)
			continue
		}
		m, err := module.Build(def.Name, false, def)
		if err != nil {
			c.skip(file, err)
			continue
		}
		if c.register(m.Key(), m) {
			c.report.Builtins = append(c.report.Builtins, m.Key())
		}
	}
}

// loadFile reads, parses and compiles one definition. Files inside a
// subdirectory of the root are submodules.
func loadFile(fsys fs.FS, file, key string) (*module.Module, error) {
	format, ok := module.FormatOf(file)
	if !ok {
		return nil, fmt.Errorf("unsupported extension %q", path.Ext(file))
	}
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}
	def, err := module.Parse(data, format)
	if err != nil {
		return nil, err
	}
	return module.Build(key, strings.Contains(key, "/"), def)
}

func (c *catalog) register(key string, m *module.Module) bool {
	if _, exists := c.modules[key]; exists {
		return false
	}
	c.modules[key] = m
	return true
}

func (c *catalog) skip(file string, err error) {
	c.report.Failed[file] = err
	c.logger.Warn("skipping module definition", "path", file, "err", err)
}

func (c *catalog) logLoaded() {
	c.logger.Info("modules loaded",
		"count", len(c.modules),
		"builtins", len(c.report.Builtins),
		"failed", len(c.report.Failed),
	)
}
