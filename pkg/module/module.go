package module

import (
	"slices"
	"sort"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/state"
)

// Module is the immutable template of one state machine.
type Module struct {
	key       string
	name      string
	submodule bool
	remarks   []string
	states    map[string]state.Template
}

// Key is the registry key of the module: a short name for built-ins, the
// slash-separated relative path without extension for library files.
func (m *Module) Key() string { return m.key }

// Name is the display name; it also derives the person attribute keys.
func (m *Module) Name() string { return m.name }

// Submodule reports whether the module is only reachable by path.
func (m *Module) Submodule() bool { return m.submodule }

// Remarks returns a copy of the free-text remarks.
func (m *Module) Remarks() []string { return slices.Clone(m.remarks) }

// State returns the template named name.
func (m *Module) State(name string) (state.Template, bool) {
	t, ok := m.states[name]
	return t, ok
}

// Initial returns the entry template.
func (m *Module) Initial() state.Template {
	return m.states[domain.InitialStateName]
}

// StateNames returns the sorted state names.
func (m *Module) StateNames() []string {
	names := make([]string, 0, len(m.states))
	for n := range m.states {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New assembles a module from already built templates and validates it.
// It is used for modules defined in Go rather than in files.
func New(key, name string, submodule bool, remarks []string, templates ...state.Template) (*Module, error) {
	states := make(map[string]state.Template, len(templates))
	for _, t := range templates {
		if _, dup := states[t.Name()]; dup {
			return nil, &ValidationError{Module: name, Problems: []string{"duplicate state " + t.Name()}}
		}
		states[t.Name()] = t
	}
	m := &Module{
		key:       key,
		name:      name,
		submodule: submodule,
		remarks:   slices.Clone(remarks),
		states:    states,
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}
