package state

import (
	"fmt"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
)

// Transition decides the outgoing edge of a state.
type Transition interface {
	Next(p *domain.Person, at time.Time) (string, error)
	Targets() []string
}

type direct string

func (d direct) Next(*domain.Person, time.Time) (string, error) { return string(d), nil }

func (d direct) Targets() []string { return []string{string(d)} }

type weighted struct {
	weight float64
	to     string
}

// distributed picks a target at random using the person's own source.
// When weights sum to less than one the last target absorbs the remainder.
type distributed []weighted

func (d distributed) Next(p *domain.Person, _ time.Time) (string, error) {
	roll := p.Rand().Float64()
	var acc float64
	for _, w := range d {
		acc += w.weight
		if roll < acc {
			return w.to, nil
		}
	}
	return d[len(d)-1].to, nil
}

func (d distributed) Targets() []string {
	out := make([]string, len(d))
	for i, w := range d {
		out[i] = w.to
	}
	return out
}

type branch struct {
	when Condition // nil means always
	to   string
}

// conditional takes the first branch whose condition holds.
type conditional []branch

func (c conditional) Next(p *domain.Person, at time.Time) (string, error) {
	for _, b := range c {
		if b.when == nil || b.when.Test(p, at) {
			return b.to, nil
		}
	}
	return "", fmt.Errorf("%w: no condition matched", domain.ErrNoTransition)
}

func (c conditional) Targets() []string {
	out := make([]string, len(c))
	for i, b := range c {
		out[i] = b.to
	}
	return out
}
