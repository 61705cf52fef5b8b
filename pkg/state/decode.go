package state

import (
	"errors"
	"fmt"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// definition is the typed view of a raw state object. Fields that belong to
// other state layers (codes, clinical payloads) are ignored.
type definition struct {
	Type                  string            `mapstructure:"type"`
	DirectTransition      string            `mapstructure:"direct_transition"`
	DistributedTransition []distributionDef `mapstructure:"distributed_transition"`
	ConditionalTransition []conditionalDef  `mapstructure:"conditional_transition"`
	Exact                 *exactDef         `mapstructure:"exact"`
	Range                 *rangeDef         `mapstructure:"range"`
	Allow                 *conditionDef     `mapstructure:"allow"`
	Attribute             string            `mapstructure:"attribute"`
	AssignToAttribute     string            `mapstructure:"assign_to_attribute"`
	Value                 any               `mapstructure:"value"`
	Wellness              bool              `mapstructure:"wellness"`
}

type distributionDef struct {
	Distribution float64 `mapstructure:"distribution"`
	Transition   string  `mapstructure:"transition"`
}

type conditionalDef struct {
	Condition  *conditionDef `mapstructure:"condition"`
	Transition string        `mapstructure:"transition"`
}

type exactDef struct {
	Quantity float64 `mapstructure:"quantity"`
	Unit     string  `mapstructure:"unit"`
}

type rangeDef struct {
	Low  float64 `mapstructure:"low"`
	High float64 `mapstructure:"high"`
	Unit string  `mapstructure:"unit"`
}

type conditionDef struct {
	ConditionType string         `mapstructure:"condition_type"`
	Attribute     string         `mapstructure:"attribute"`
	Operator      string         `mapstructure:"operator"`
	Value         any            `mapstructure:"value"`
	Conditions    []conditionDef `mapstructure:"conditions"`
	Condition     *conditionDef  `mapstructure:"condition"`
}

// Build decodes a raw state object into an immutable Template.
// module is the owning module's name; Encounter states use it to find their scoped flag.
func Build(module, name string, raw map[string]any) (Template, error) {
	var def definition
	if err := mapstructure.WeakDecode(raw, &def); err != nil {
		return nil, fmt.Errorf("state %q: %w", name, err)
	}

	t := &template{
		module: module,
		name:   name,
		kind:   Kind(def.Type),
	}

	switch t.kind {
	case KindInitial, KindSimple:
	case KindTerminal:
		if def.hasTransition() {
			return nil, fmt.Errorf("state %q: terminal states cannot declare a transition", name)
		}
		return t, nil
	case KindDelay:
		d, err := def.delay()
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", name, err)
		}
		t.delay = d
	case KindGuard:
		if def.Allow == nil {
			return nil, fmt.Errorf("state %q: guard requires 'allow'", name)
		}
		c, err := def.Allow.build()
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", name, err)
		}
		t.guard = c
	case KindSetAttribute:
		if def.Attribute == "" {
			return nil, fmt.Errorf("state %q: SetAttribute requires 'attribute'", name)
		}
		if domain.DerivedAttribute(def.Attribute) {
			return nil, fmt.Errorf("state %q: %w: %q", name, domain.ErrDerivedAttribute, def.Attribute)
		}
		if !scalar(def.Value) {
			return nil, fmt.Errorf("state %q: value must be a string, number or boolean, got %T", name, def.Value)
		}
		t.attribute = def.Attribute
		t.value = def.Value
	case KindEncounter:
		if domain.DerivedAttribute(def.AssignToAttribute) {
			return nil, fmt.Errorf("state %q: %w: %q", name, domain.ErrDerivedAttribute, def.AssignToAttribute)
		}
		t.wellness = def.Wellness
		t.attribute = def.AssignToAttribute
	case "":
		return nil, fmt.Errorf("state %q: missing type", name)
	default:
		return nil, fmt.Errorf("state %q: unknown type %q", name, def.Type)
	}

	tr, err := def.transition()
	if err != nil {
		return nil, fmt.Errorf("state %q: %w", name, err)
	}
	t.transition = tr
	return t, nil
}

func (d definition) hasTransition() bool {
	return d.DirectTransition != "" || len(d.DistributedTransition) > 0 || len(d.ConditionalTransition) > 0
}

func (d definition) transition() (Transition, error) {
	declared := 0
	var tr Transition

	if d.DirectTransition != "" {
		declared++
		tr = direct(d.DirectTransition)
	}
	if len(d.DistributedTransition) > 0 {
		declared++
		dist := make(distributed, 0, len(d.DistributedTransition))
		var total float64
		for _, w := range d.DistributedTransition {
			if w.Distribution < 0 || w.Distribution > 1 {
				return nil, fmt.Errorf("distribution %v for %q outside [0,1]", w.Distribution, w.Transition)
			}
			total += w.Distribution
			dist = append(dist, weighted{weight: w.Distribution, to: w.Transition})
		}
		if total > 1.0001 {
			return nil, fmt.Errorf("distributions sum to %v", total)
		}
		tr = dist
	}
	if len(d.ConditionalTransition) > 0 {
		declared++
		cond := make(conditional, 0, len(d.ConditionalTransition))
		for i, c := range d.ConditionalTransition {
			b := branch{to: c.Transition}
			if c.Condition != nil {
				built, err := c.Condition.build()
				if err != nil {
					return nil, fmt.Errorf("conditional_transition[%d]: %w", i, err)
				}
				b.when = built
			}
			cond = append(cond, b)
		}
		tr = cond
	}

	switch declared {
	case 0:
		return nil, errors.New("missing transition")
	case 1:
		return tr, nil
	default:
		return nil, errors.New("only one kind of transition may be declared")
	}
}

func (d definition) delay() (delaySpec, error) {
	switch {
	case d.Exact != nil && d.Range != nil:
		return delaySpec{}, errors.New("delay declares both 'exact' and 'range'")
	case d.Exact != nil:
		unit, ok := units[d.Exact.Unit]
		if !ok {
			return delaySpec{}, fmt.Errorf("unknown unit %q", d.Exact.Unit)
		}
		if d.Exact.Quantity < 0 {
			return delaySpec{}, fmt.Errorf("negative delay %v", d.Exact.Quantity)
		}
		return delaySpec{low: d.Exact.Quantity, high: d.Exact.Quantity, unit: unit}, nil
	case d.Range != nil:
		unit, ok := units[d.Range.Unit]
		if !ok {
			return delaySpec{}, fmt.Errorf("unknown unit %q", d.Range.Unit)
		}
		if d.Range.Low < 0 || d.Range.High < d.Range.Low {
			return delaySpec{}, fmt.Errorf("invalid range [%v, %v]", d.Range.Low, d.Range.High)
		}
		return delaySpec{low: d.Range.Low, high: d.Range.High, unit: unit}, nil
	}
	return delaySpec{}, errors.New("delay requires 'exact' or 'range'")
}

func (c conditionDef) build() (Condition, error) {
	switch c.ConditionType {
	case "True":
		return constant(true), nil
	case "False":
		return constant(false), nil
	case "Attribute":
		if c.Attribute == "" {
			return nil, errors.New("attribute condition requires 'attribute'")
		}
		if !operators[c.Operator] {
			return nil, fmt.Errorf("unknown operator %q", c.Operator)
		}
		return attributeCondition{attribute: c.Attribute, operator: c.Operator, value: c.Value}, nil
	case "And", "Or":
		if len(c.Conditions) == 0 {
			return nil, fmt.Errorf("%s condition requires 'conditions'", c.ConditionType)
		}
		built := make([]Condition, 0, len(c.Conditions))
		for _, sub := range c.Conditions {
			b, err := sub.build()
			if err != nil {
				return nil, err
			}
			built = append(built, b)
		}
		if c.ConditionType == "And" {
			return allOf(built), nil
		}
		return anyOf(built), nil
	case "Not":
		if c.Condition == nil {
			return nil, errors.New("Not condition requires 'condition'")
		}
		inner, err := c.Condition.build()
		if err != nil {
			return nil, err
		}
		return not{inner: inner}, nil
	}
	return nil, fmt.Errorf("unknown condition_type %q", c.ConditionType)
}

func scalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	}
	return false
}
