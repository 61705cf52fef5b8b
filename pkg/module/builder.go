package module

import "github.com/aretw0/cohort/pkg/state"

// Builder manages the construction of a module definition in Go code.
type Builder struct {
	def Definition
}

// NewBuilder creates a builder for the module named name.
func NewBuilder(name string) *Builder {
	return &Builder{
		def: Definition{
			Name:   name,
			States: make(map[string]map[string]any),
		},
	}
}

// Remarks appends free-text remarks to the module.
func (b *Builder) Remarks(lines ...string) *Builder {
	b.def.Remarks = append(b.def.Remarks, lines...)
	return b
}

// State creates a new state in the module.
// If the state already exists, it returns a builder for the existing one.
func (b *Builder) State(name string) *StateBuilder {
	raw, ok := b.def.States[name]
	if !ok {
		raw = make(map[string]any)
		b.def.States[name] = raw
	}
	return &StateBuilder{raw: raw}
}

// Definition returns the definition built so far.
func (b *Builder) Definition() *Definition {
	return &b.def
}

// Build compiles the definition as a top-level module registered under key.
func (b *Builder) Build(key string) (*Module, error) {
	return Build(key, false, &b.def)
}

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	raw map[string]any
}

func (s *StateBuilder) kind(k state.Kind) *StateBuilder {
	s.raw["type"] = string(k)
	return s
}

// Initial marks the state as the module entry.
func (s *StateBuilder) Initial() *StateBuilder { return s.kind(state.KindInitial) }

// Simple marks the state as an immediate pass-through.
func (s *StateBuilder) Simple() *StateBuilder { return s.kind(state.KindSimple) }

// Terminal marks the state as the end of the module.
func (s *StateBuilder) Terminal() *StateBuilder { return s.kind(state.KindTerminal) }

// Delay waits an exact quantity of unit.
func (s *StateBuilder) Delay(quantity float64, unit string) *StateBuilder {
	s.raw["exact"] = map[string]any{"quantity": quantity, "unit": unit}
	return s.kind(state.KindDelay)
}

// DelayRange waits a quantity drawn uniformly from [low, high].
func (s *StateBuilder) DelayRange(low, high float64, unit string) *StateBuilder {
	s.raw["range"] = map[string]any{"low": low, "high": high, "unit": unit}
	return s.kind(state.KindDelay)
}

// Guard blocks until attribute compares to value with operator.
func (s *StateBuilder) Guard(attribute, operator string, value any) *StateBuilder {
	s.raw["allow"] = attributeCondition(attribute, operator, value)
	return s.kind(state.KindGuard)
}

// Set assigns value to attribute on the person.
func (s *StateBuilder) Set(attribute string, value any) *StateBuilder {
	s.raw["attribute"] = attribute
	s.raw["value"] = value
	return s.kind(state.KindSetAttribute)
}

// Encounter records an encounter. A wellness encounter waits for the scoped wellness flag.
func (s *StateBuilder) Encounter(wellness bool) *StateBuilder {
	s.raw["wellness"] = wellness
	return s.kind(state.KindEncounter)
}

// Go adds an unconditional transition to target.
func (s *StateBuilder) Go(target string) *StateBuilder {
	s.raw["direct_transition"] = target
	return s
}

// Distribute adds a weighted branch to target.
func (s *StateBuilder) Distribute(weight float64, target string) *StateBuilder {
	list, _ := s.raw["distributed_transition"].([]any)
	s.raw["distributed_transition"] = append(list, map[string]any{"distribution": weight, "transition": target})
	return s
}

// When adds a conditional branch taken when attribute compares to value with operator.
func (s *StateBuilder) When(attribute, operator string, value any, target string) *StateBuilder {
	list, _ := s.raw["conditional_transition"].([]any)
	s.raw["conditional_transition"] = append(list, map[string]any{
		"condition":  attributeCondition(attribute, operator, value),
		"transition": target,
	})
	return s
}

// Otherwise adds the fallback branch of a conditional transition.
func (s *StateBuilder) Otherwise(target string) *StateBuilder {
	list, _ := s.raw["conditional_transition"].([]any)
	s.raw["conditional_transition"] = append(list, map[string]any{"transition": target})
	return s
}

func attributeCondition(attribute, operator string, value any) map[string]any {
	return map[string]any{
		"condition_type": "Attribute",
		"attribute":      attribute,
		"operator":       operator,
		"value":          value,
	}
}
