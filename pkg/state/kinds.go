package state

import (
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
)

// template is the built-in Template implementation. All fields are set by
// Build and never written afterwards.
type template struct {
	module     string
	name       string
	kind       Kind
	transition Transition
	delay      delaySpec
	guard      Condition
	attribute  string
	value      any
	wellness   bool
}

func (t *template) Name() string { return t.name }

func (t *template) Kind() Kind { return t.kind }

func (t *template) Targets() []string {
	if t.transition == nil {
		return nil
	}
	return slices.Clone(t.transition.Targets())
}

func (t *template) Clone() Instance {
	return &instance{tmpl: t}
}

// instance is the per-person clone of a template.
type instance struct {
	tmpl *template

	entered    time.Time
	exited     time.Time
	hasEntered bool
	hasExited  bool

	// until is the end of a delay, drawn on the first run.
	until time.Time
}

func (i *instance) Name() string { return i.tmpl.name }

func (i *instance) Kind() Kind { return i.tmpl.kind }

func (i *instance) Terminal() bool { return i.tmpl.kind == KindTerminal }

func (i *instance) Entered() (time.Time, bool) { return i.entered, i.hasEntered }

func (i *instance) Exited() (time.Time, bool) { return i.exited, i.hasExited }

func (i *instance) Run(p *domain.Person, at time.Time) bool {
	if !i.hasEntered {
		i.entered, i.hasEntered = at, true
	}

	t := i.tmpl
	switch t.kind {
	case KindTerminal:
		return false
	case KindInitial, KindSimple:
		return i.exit(at)
	case KindDelay:
		if i.until.IsZero() {
			i.until = t.delay.end(p, i.entered)
		}
		if at.Before(i.until) {
			return false
		}
		return i.exit(i.until)
	case KindGuard:
		if !t.guard.Test(p, at) {
			return false
		}
		return i.exit(at)
	case KindSetAttribute:
		p.Attributes[t.attribute] = t.value
		return i.exit(at)
	case KindEncounter:
		if t.wellness && !p.InEncounterScope(t.module) {
			return false
		}
		if t.attribute != "" {
			p.Attributes[t.attribute] = at
		}
		return i.exit(at)
	}
	return false
}

func (i *instance) exit(at time.Time) bool {
	i.exited, i.hasExited = at, true
	return true
}

func (i *instance) Transition(p *domain.Person, at time.Time) (string, error) {
	if i.tmpl.transition == nil {
		return "", fmt.Errorf("%w: state %q has no outgoing transition", domain.ErrNoTransition, i.tmpl.name)
	}
	return i.tmpl.transition.Next(p, at)
}

// units maps definition units to durations. Years and months use their mean length.
var units = map[string]time.Duration{
	"years":   8766 * time.Hour,
	"months":  730*time.Hour + 30*time.Minute,
	"weeks":   7 * 24 * time.Hour,
	"days":    24 * time.Hour,
	"hours":   time.Hour,
	"minutes": time.Minute,
	"seconds": time.Second,
}

type delaySpec struct {
	low, high float64
	unit      time.Duration
}

func (d delaySpec) end(p *domain.Person, from time.Time) time.Time {
	q := d.low
	if d.high > d.low {
		q = d.low + p.Rand().Float64()*(d.high-d.low)
	}
	return from.Add(time.Duration(q * float64(d.unit)))
}
