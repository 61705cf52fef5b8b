package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventRewind     EventType = "rewind"
	EventComplete   EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Type     EventType `json:"type"`
	PersonID string    `json:"person_id"`
	Module   string    `json:"module"`
	// Time is the simulated instant the event happened at, not wall-clock time.
	Time time.Time `json:"time"`
}

// StateEvent represents the entry into a state.
type StateEvent struct {
	EventBase
	From  string `json:"from"`
	State string `json:"state"`
	Kind  string `json:"kind"`
}

// RewindEvent represents a recursive catch-up from a wait condition that
// resolved before the current tick.
type RewindEvent struct {
	EventBase
	// Target is the earlier instant the engine rewound to.
	Target time.Time `json:"target"`
	Depth  int       `json:"depth"`
}

// CompleteEvent is emitted once when a module reaches a terminal state.
type CompleteEvent struct {
	EventBase
	State string `json:"state"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStateEnter func(context.Context, *StateEvent)
	OnRewind     func(context.Context, *RewindEvent)
	OnComplete   func(context.Context, *CompleteEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter: chain(h.OnStateEnter, other.OnStateEnter),
		OnRewind:     chain(h.OnRewind, other.OnRewind),
		OnComplete:   chain(h.OnComplete, other.OnComplete),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
