package runtime

import (
	"fmt"

	"github.com/aretw0/cohort/pkg/domain"
)

// TransitionError reports a state whose outgoing edge could not be followed.
// It is a definition defect: the history is left as it was before the transition.
type TransitionError struct {
	Module string
	From   string
	// To is empty when the state failed to pick a successor at all.
	To  string
	Err error
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("module %q: state %q failed to transition: %v", e.Module, e.From, e.Err)
	}
	return fmt.Sprintf("module %q: state %q transitions to %q: %v", e.Module, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// RewindDepthError reports delay rewinds nested beyond the engine limit.
type RewindDepthError struct {
	Module string
	State  string
	Limit  int
}

func (e *RewindDepthError) Error() string {
	return fmt.Sprintf("module %q at state %q: rewinds nested deeper than %d", e.Module, e.State, e.Limit)
}

func (e *RewindDepthError) Unwrap() error { return domain.ErrRewindDepthExceeded }
