package state

import (
	"cmp"
	"fmt"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
)

// Condition is a predicate over a person at a simulated instant.
type Condition interface {
	Test(p *domain.Person, at time.Time) bool
}

type constant bool

func (c constant) Test(*domain.Person, time.Time) bool { return bool(c) }

type allOf []Condition

func (cs allOf) Test(p *domain.Person, at time.Time) bool {
	for _, c := range cs {
		if !c.Test(p, at) {
			return false
		}
	}
	return true
}

type anyOf []Condition

func (cs anyOf) Test(p *domain.Person, at time.Time) bool {
	for _, c := range cs {
		if c.Test(p, at) {
			return true
		}
	}
	return false
}

type not struct{ inner Condition }

func (n not) Test(p *domain.Person, at time.Time) bool { return !n.inner.Test(p, at) }

// attributeCondition compares a person attribute against a literal value.
type attributeCondition struct {
	attribute string
	operator  string
	value     any
}

var operators = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"is nil": true, "is not nil": true,
}

func (c attributeCondition) Test(p *domain.Person, _ time.Time) bool {
	actual, present := p.Attributes[c.attribute]
	switch c.operator {
	case "is nil":
		return !present || actual == nil
	case "is not nil":
		return present && actual != nil
	}
	if !present {
		return false
	}
	return compareValues(actual, c.value, c.operator)
}

func compareValues(a, b any, op string) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return ordered(cmp.Compare(fa, fb), op)
		}
		return false
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return ordered(cmp.Compare(sa, sb), op)
		}
		return false
	}
	switch op {
	case "==":
		return fmt.Sprint(a) == fmt.Sprint(b)
	case "!=":
		return fmt.Sprint(a) != fmt.Sprint(b)
	}
	return false
}

func ordered(c int, op string) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
