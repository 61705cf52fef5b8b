package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/aretw0/cohort/pkg/state"
)

// DefaultMaxRewindDepth bounds nested delay rewinds within one Process call.
const DefaultMaxRewindDepth = 1024

// Engine advances people through module templates. It holds no per-person
// data and is safe for concurrent use, provided no two calls share a person.
type Engine struct {
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	maxRewindDepth int
	maxSteps       int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxRewindDepth bounds how deeply delay rewinds may nest.
func WithMaxRewindDepth(depth int) EngineOption {
	return func(e *Engine) {
		if depth > 0 {
			e.maxRewindDepth = depth
		}
	}
}

// WithMaxSteps bounds the transitions taken by a single Process call. Zero means unbounded.
func WithMaxSteps(steps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = steps
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRewindDepth: DefaultMaxRewindDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// call is the bookkeeping of one top-level Process invocation, shared by its rewinds.
type call struct {
	person  *domain.Person
	mod     *module.Module
	history *state.History
	steps   int
}

// Process advances person within mod as far as the information available at
// at permits. It reports whether the module reached a Terminal state.
//
// The only data mutated is owned by person: its history for mod, the cloned
// state instances, and the module-scoped wellness flag, which is cleared
// before Process returns on every path.
func (e *Engine) Process(ctx context.Context, person *domain.Person, mod *module.Module, at time.Time) (bool, error) {
	if person == nil {
		return false, errors.New("cannot process nil person")
	}
	if mod == nil {
		return false, errors.New("cannot process nil module")
	}

	h, err := state.LookupHistory(person, mod.Name())
	if err != nil {
		return false, err
	}
	if h == nil {
		h = state.StartHistory(person, mod.Name(), mod.Initial().Clone())
	}

	release := person.EnterEncounterScope(mod.Name())
	defer release()

	c := &call{person: person, mod: mod, history: h}
	done, err := e.advance(ctx, c, at, at, 0)
	if err != nil {
		e.logger.Error("module processing failed",
			"person", person.ID,
			"module", mod.Name(),
			"state", h.Current().Name(),
			"err", err)
		return false, err
	}

	if done && c.steps > 0 {
		e.emitComplete(ctx, c, at)
	}
	return done, nil
}

// advance runs the loop of one Process call at instant at. bound is the time
// of the enclosing call; rewinds never move past it.
func (e *Engine) advance(ctx context.Context, c *call, at, bound time.Time, depth int) (bool, error) {
	if depth > e.maxRewindDepth {
		return false, &RewindDepthError{Module: c.mod.Name(), State: c.history.Current().Name(), Limit: e.maxRewindDepth}
	}
	if at.After(bound) {
		return false, fmt.Errorf("%w: %s after %s", domain.ErrTimeInversion, at.Format(time.RFC3339Nano), bound.Format(time.RFC3339Nano))
	}

	current := c.history.Current()
	for current.Run(c.person, at) {
		if e.maxSteps > 0 && c.steps >= e.maxSteps {
			return false, fmt.Errorf("module %q at state %q: %w (%d)", c.mod.Name(), current.Name(), domain.ErrStepLimit, e.maxSteps)
		}

		exited, hasExited := current.Exited()
		next, err := current.Transition(c.person, at)
		if err != nil {
			return false, &TransitionError{Module: c.mod.Name(), From: current.Name(), Err: err}
		}
		tmpl, ok := c.mod.State(next)
		if !ok {
			return false, &TransitionError{Module: c.mod.Name(), From: current.Name(), To: next, Err: domain.ErrStateNotFound}
		}

		from := current.Name()
		current = tmpl.Clone()
		c.history.Push(current)
		c.steps++

		rewind := hasExited && exited.Before(at)
		enteredAt := at
		if rewind {
			enteredAt = exited
		}
		e.emitStateEnter(ctx, c, from, current, enteredAt)

		if rewind {
			// The wait resolved between ticks: replay what followed at the instant it resolved.
			e.emitRewind(ctx, c, at, exited, depth+1)
			if _, err := e.advance(ctx, c, exited, at, depth+1); err != nil {
				return false, err
			}
			current = c.history.Current()
		}
	}

	return current.Terminal(), nil
}

func (e *Engine) emitStateEnter(ctx context.Context, c *call, from string, to state.Instance, at time.Time) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		EventBase: domain.EventBase{Type: domain.EventStateEnter, PersonID: c.person.ID, Module: c.mod.Name(), Time: at},
		From:      from,
		State:     to.Name(),
		Kind:      string(to.Kind()),
	})
}

func (e *Engine) emitRewind(ctx context.Context, c *call, at, target time.Time, depth int) {
	e.logger.Debug("rewinding",
		"person", c.person.ID,
		"module", c.mod.Name(),
		"from", at,
		"to", target,
		"depth", depth)
	if e.hooks.OnRewind == nil {
		return
	}
	e.hooks.OnRewind(ctx, &domain.RewindEvent{
		EventBase: domain.EventBase{Type: domain.EventRewind, PersonID: c.person.ID, Module: c.mod.Name(), Time: at},
		Target:    target,
		Depth:     depth,
	})
}

func (e *Engine) emitComplete(ctx context.Context, c *call, at time.Time) {
	if e.hooks.OnComplete == nil {
		return
	}
	e.hooks.OnComplete(ctx, &domain.CompleteEvent{
		EventBase: domain.EventBase{Type: domain.EventComplete, PersonID: c.person.ID, Module: c.mod.Name(), Time: at},
		State:     c.history.Current().Name(),
	})
}
