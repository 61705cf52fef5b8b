package module

import (
	"fmt"
	"strings"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/state"
)

// ValidationError lists the structural problems found in one module.
type ValidationError struct {
	Module   string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("module %q: %s", e.Module, e.Problems[0])
	}
	return fmt.Sprintf("module %q: found %d errors:\n- %s", e.Module, len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// Validate crawls the module from Initial and reports dangling transitions,
// a missing or misplaced Initial state, and the absence of a reachable Terminal.
func Validate(m *Module) error {
	var problems []string

	for _, name := range m.StateNames() {
		t := m.states[name]
		if t.Kind() == state.KindInitial && name != domain.InitialStateName {
			problems = append(problems, fmt.Sprintf("state %q is of kind Initial but only %q may be", name, domain.InitialStateName))
		}
		for _, target := range t.Targets() {
			if _, ok := m.states[target]; !ok {
				problems = append(problems, fmt.Sprintf("state %q transitions to missing state %q", name, target))
			}
		}
	}

	initial, ok := m.states[domain.InitialStateName]
	switch {
	case !ok:
		problems = append(problems, fmt.Sprintf("no state named %q", domain.InitialStateName))
	case initial.Kind() != state.KindInitial:
		problems = append(problems, fmt.Sprintf("state %q has kind %s", domain.InitialStateName, initial.Kind()))
	case !terminalReachable(m, domain.InitialStateName):
		problems = append(problems, "no Terminal state is reachable from Initial")
	}

	if len(problems) > 0 {
		return &ValidationError{Module: m.name, Problems: problems}
	}
	return nil
}

func terminalReachable(m *Module, start string) bool {
	visited := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		t, ok := m.states[current]
		if !ok {
			continue
		}
		if t.Kind() == state.KindTerminal {
			return true
		}
		for _, target := range t.Targets() {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	return false
}
