package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cohort/internal/logging"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/aretw0/cohort/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Engine is the part of cohort.Engine the driver needs.
type Engine interface {
	Module(key string) (*module.Module, error)
	Modules() []*module.Module
	ProcessModule(ctx context.Context, person *domain.Person, mod *module.Module, at time.Time) (bool, error)
	Snapshot(person *domain.Person, at time.Time, modules ...*module.Module) domain.Snapshot
}

// Config describes one run.
type Config struct {
	Population int
	// Seed derives every person's random source; person i gets Seed+i.
	Seed  uint64
	Start time.Time
	End   time.Time
	Step  time.Duration
	// Modules are registry keys. Empty means every top-level module.
	Modules []string
	// Workers bounds the people processed in parallel. Zero means one per person.
	Workers int
	// WellnessEvery raises the wellness signal on the first tick of each
	// interval and clears it on the others. Zero never raises it.
	WellnessEvery time.Duration
	// Sessions, when set, receives every person's final snapshot and guards
	// each person with its lock for the whole run.
	Sessions *session.Manager
	Logger   *slog.Logger
}

// Result aggregates a run.
type Result struct {
	People []string
	Ticks  int
	// Completed counts, per module key, the people who reached a terminal state.
	Completed map[string]int
	// Failed counts, per module key, the people whose run hit an engine error.
	// The module is dropped for that person and the run goes on.
	Failed map[string]int
}

func (c *Config) validate() error {
	switch {
	case c.Population <= 0:
		return errors.New("population must be positive")
	case c.Step <= 0:
		return errors.New("step must be positive")
	case c.End.Before(c.Start):
		return fmt.Errorf("end %s is before start %s", c.End.Format(time.DateOnly), c.Start.Format(time.DateOnly))
	}
	return nil
}

func resolve(eng Engine, keys []string) ([]*module.Module, error) {
	if len(keys) == 0 {
		return eng.Modules(), nil
	}
	mods := make([]*module.Module, 0, len(keys))
	for _, key := range keys {
		m, err := eng.Module(key)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Run executes cfg against eng.
func Run(ctx context.Context, eng Engine, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	mods, err := resolve(eng, cfg.Modules)
	if err != nil {
		return nil, err
	}

	res := &Result{
		People:    make([]string, cfg.Population),
		Ticks:     ticks(cfg),
		Completed: make(map[string]int),
		Failed:    make(map[string]int),
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for i := range cfg.Population {
		p := domain.NewPerson(uuid.NewString(), cfg.Seed+uint64(i))
		res.People[i] = p.ID

		g.Go(func() error {
			run := func(ctx context.Context) error {
				out, err := live(ctx, eng, p, mods, cfg, logger)
				if err != nil {
					return err
				}
				mu.Lock()
				for key, st := range out {
					switch st {
					case completed:
						res.Completed[key]++
					case failed:
						res.Failed[key]++
					}
				}
				mu.Unlock()

				if cfg.Sessions == nil {
					return nil
				}
				return cfg.Sessions.Store().Save(ctx, eng.Snapshot(p, cfg.End, mods...))
			}
			if cfg.Sessions == nil {
				return run(ctx)
			}
			return cfg.Sessions.WithLock(ctx, p.ID, run)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(res.People)

	logger.Info("simulation finished",
		"people", cfg.Population,
		"ticks", res.Ticks,
		"modules", len(mods),
	)
	return res, nil
}

type status int

const (
	running status = iota
	completed
	failed
)

func ticks(cfg Config) int {
	return int(cfg.End.Sub(cfg.Start)/cfg.Step) + 1
}

// live ticks one person from Start to End. Finished and failed modules are not
// processed again.
func live(ctx context.Context, eng Engine, p *domain.Person, mods []*module.Module, cfg Config, logger *slog.Logger) (map[string]status, error) {
	out := make(map[string]status, len(mods))
	for _, m := range mods {
		out[m.Key()] = running
	}

	var lastWellness time.Time
	for at := cfg.Start; !at.After(cfg.End); at = at.Add(cfg.Step) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		wellness := cfg.WellnessEvery > 0 && (lastWellness.IsZero() || at.Sub(lastWellness) >= cfg.WellnessEvery)
		if wellness {
			lastWellness = at
		}
		p.SetActiveWellnessEncounter(wellness)

		pending := 0
		for _, m := range mods {
			if out[m.Key()] != running {
				continue
			}
			done, err := eng.ProcessModule(ctx, p, m, at)
			switch {
			case err != nil:
				logger.Warn("module dropped for person", "person", p.ID, "module", m.Key(), "at", at, "err", err)
				out[m.Key()] = failed
			case done:
				out[m.Key()] = completed
			default:
				pending++
			}
		}
		if pending == 0 {
			break
		}
	}
	p.SetActiveWellnessEncounter(false)
	return out, nil
}
