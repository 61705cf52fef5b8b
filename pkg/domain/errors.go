package domain

import "errors"

// ErrModuleNotFound is returned when a registry lookup does not match any module.
var ErrModuleNotFound = errors.New("module not found")

// ErrStateNotFound is returned when a transition names a state the module does not define.
var ErrStateNotFound = errors.New("state not found")

// ErrNoTransition is returned when a state is asked for a successor it cannot provide.
var ErrNoTransition = errors.New("no transition available")

// ErrRewindDepthExceeded is returned when delay rewinds nest deeper than the engine allows.
var ErrRewindDepthExceeded = errors.New("rewind depth exceeded")

// ErrTimeInversion is returned when a rewind would move past the time of the call that caused it.
var ErrTimeInversion = errors.New("rewind target is after the enclosing call")

// ErrStepLimit is returned when a single process call runs more transitions than allowed.
var ErrStepLimit = errors.New("step limit reached")

// ErrSnapshotNotFound is returned when a person ID cannot be found in the snapshot store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrDerivedAttribute is returned when a definition or a person's attributes misuse a key the engine owns.
var ErrDerivedAttribute = errors.New("attribute key is reserved for engine bookkeeping")
