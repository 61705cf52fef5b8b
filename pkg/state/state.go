package state

import (
	"time"

	"github.com/aretw0/cohort/pkg/domain"
)

// Kind names a state behavior.
type Kind string

const (
	KindInitial      Kind = "Initial"
	KindTerminal     Kind = "Terminal"
	KindSimple       Kind = "Simple"
	KindDelay        Kind = "Delay"
	KindGuard        Kind = "Guard"
	KindSetAttribute Kind = "SetAttribute"
	KindEncounter    Kind = "Encounter"
)

// Template is the immutable prototype of a named state, shared by every person.
type Template interface {
	Name() string
	Kind() Kind
	// Targets lists every state name the template may transition to.
	Targets() []string
	// Clone returns a new Instance bound to no one yet. Two calls never return
	// values that share mutable data.
	Clone() Instance
}

// Instance is a per-person clone of a Template.
type Instance interface {
	Name() string
	Kind() Kind

	// Run reports whether the state's completion condition holds as of at.
	Run(p *domain.Person, at time.Time) bool

	// Transition picks the name of the next state. It is only called after Run returned true.
	Transition(p *domain.Person, at time.Time) (string, error)

	// Entered reports when the instance first ran.
	Entered() (time.Time, bool)

	// Exited reports when the completion condition actually became true. For
	// wait states this may be earlier than the instant Run was called with.
	Exited() (time.Time, bool)

	Terminal() bool
}
