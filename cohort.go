package cohort

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/cohort/internal/logging"
	"github.com/aretw0/cohort/internal/runtime"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/aretw0/cohort/pkg/registry"
	"github.com/aretw0/cohort/pkg/state"
)

// Engine is the high-level entry point for the cohort library.
// It pairs a module registry with the runtime that advances people through it.
type Engine struct {
	registry     *registry.Registry
	runtime      *runtime.Engine
	registryOpts []registry.Option
	runtimeOpts  []runtime.EngineOption
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	Name         string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the registry and the runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxRewindDepth bounds nested delay rewinds within one Process call.
func WithMaxRewindDepth(depth int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxRewindDepth(depth))
	}
}

// WithMaxSteps bounds the transitions a single Process call may take.
func WithMaxSteps(steps int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxSteps(steps))
	}
}

// WithRegistryOptions passes options through to the registry (custom fs, built-ins).
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(e *Engine) {
		e.registryOpts = append(e.registryOpts, opts...)
	}
}

// New creates an engine over the module library at libraryPath.
// An empty path means built-in modules only. Nothing is read from disk until
// Load or the first lookup.
func New(libraryPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if libraryPath != "" {
		absPath, err := filepath.Abs(libraryPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		libraryPath = absPath
		eng.Name = filepath.Base(absPath)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("library", eng.Name)
	}

	registryOpts := append([]registry.Option{registry.WithLogger(eng.logger)}, eng.registryOpts...)
	eng.registry = registry.New(libraryPath, registryOpts...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(runtimeOpts...)

	return eng, nil
}

// Load reads the module library. It is optional: lookups load lazily.
func (e *Engine) Load(ctx context.Context) error {
	return e.registry.Load(ctx)
}

// Registry returns the underlying module registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Module returns the module registered under key.
func (e *Engine) Module(key string) (*module.Module, error) {
	return e.registry.Get(key)
}

// Modules returns every top-level module, sorted by key.
func (e *Engine) Modules() []*module.Module {
	return e.registry.ListTopLevel()
}

// Names returns every registered key, submodules included, sorted.
func (e *Engine) Names() []string {
	return e.registry.ListNames()
}

// Process advances person through the module registered under key at the
// simulated instant at. It reports whether the module has completed.
func (e *Engine) Process(ctx context.Context, person *domain.Person, key string, at time.Time) (bool, error) {
	mod, err := e.registry.Get(key)
	if err != nil {
		return false, err
	}
	return e.runtime.Process(ctx, person, mod, at)
}

// ProcessModule is Process for a module the caller already resolved.
func (e *Engine) ProcessModule(ctx context.Context, person *domain.Person, mod *module.Module, at time.Time) (bool, error) {
	return e.runtime.Process(ctx, person, mod, at)
}

// Snapshot summarizes where person stands in the given modules.
// With no modules, every module the registry knows is considered.
func (e *Engine) Snapshot(person *domain.Person, at time.Time, modules ...*module.Module) domain.Snapshot {
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name())
	}
	if len(modules) == 0 {
		for _, key := range e.registry.ListNames() {
			if m, err := e.registry.Get(key); err == nil {
				names = append(names, m.Name())
			}
		}
	}
	return state.Snapshot(person, at, names...)
}
