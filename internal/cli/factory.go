// Package cli holds the wiring shared by the cohort commands: building the
// logger, the engine, the snapshot store and the metrics from a config.Config.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/cohort"
	"github.com/aretw0/cohort/internal/config"
	"github.com/aretw0/cohort/internal/logging"
	"github.com/aretw0/cohort/pkg/adapters/memory"
	"github.com/aretw0/cohort/pkg/adapters/redis"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/observability"
	"github.com/aretw0/cohort/pkg/ports"
	"github.com/aretw0/cohort/pkg/session"
	"github.com/aretw0/cohort/pkg/simulation"
	"github.com/prometheus/client_golang/prometheus"
)

// NewLogger builds the application logger from the config.
func NewLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWith(logging.Options{Level: level, JSON: cfg.LogJSON}), nil
}

// Runtime bundles what a long-running command needs.
type Runtime struct {
	Engine   *cohort.Engine
	Sessions *session.Manager
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Close releases the store connections.
func (r *Runtime) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewRuntime builds the engine with metrics and logging hooks, loads the
// module library, and opens the snapshot store selected by the config.
func NewRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	eng, err := NewEngine(ctx, cfg, logger, metrics.Hooks().Merge(observability.LoggingHooks(logger)))
	if err != nil {
		return nil, err
	}
	metrics.ObserveLoad(eng.Registry().Report())

	rt := &Runtime{Engine: eng, Metrics: metrics, Registry: reg, Logger: logger}

	store, locker, closer := NewStore(cfg)
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}
	opts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	rt.Sessions = session.NewManager(store, opts...)
	return rt, nil
}

// NewEngine creates and loads an engine over cfg.Dir.
func NewEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) (*cohort.Engine, error) {
	opts := []cohort.Option{
		cohort.WithLogger(logger),
		cohort.WithLifecycleHooks(hooks),
	}
	if cfg.MaxRewindDepth > 0 {
		opts = append(opts, cohort.WithMaxRewindDepth(cfg.MaxRewindDepth))
	}
	if cfg.MaxSteps > 0 {
		opts = append(opts, cohort.WithMaxSteps(cfg.MaxSteps))
	}

	eng, err := cohort.New(cfg.Dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	if err := eng.Load(ctx); err != nil {
		return nil, fmt.Errorf("error loading modules: %w", err)
	}
	return eng, nil
}

// NewStore returns the Redis store and locker when cfg.Redis.Addr is set,
// and the in-memory store otherwise. closer is nil for the memory store.
func NewStore(cfg config.Config) (store ports.SnapshotStore, locker ports.DistributedLocker, closer func() error) {
	if cfg.Redis.Addr == "" {
		return memory.NewStore(), nil, nil
	}

	var opts []redis.Option
	if cfg.Redis.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
	}
	if cfg.Redis.TTL > 0 {
		opts = append(opts, redis.WithTTL(time.Duration(cfg.Redis.TTL)))
	}
	s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = redis.DefaultPrefix
	}
	return s, redis.NewLocker(s.Client(), prefix), s.Close
}

// SimulationConfig maps the simulate section of cfg onto a driver config
// that saves every snapshot through rt.Sessions.
func SimulationConfig(cfg config.Config, rt *Runtime) simulation.Config {
	sim := cfg.Simulation
	return simulation.Config{
		Population:    sim.Population,
		Seed:          sim.Seed,
		Start:         sim.Start.Time,
		End:           sim.End.Time,
		Step:          time.Duration(sim.Step),
		Modules:       sim.Modules,
		Workers:       sim.Workers,
		WellnessEvery: time.Duration(sim.WellnessEvery),
		Sessions:      rt.Sessions,
		Logger:        rt.Logger,
	}
}
