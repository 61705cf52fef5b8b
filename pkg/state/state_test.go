package state_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func mustBuild(t *testing.T, name string, raw map[string]any) state.Template {
	t.Helper()
	tmpl, err := state.Build("Test", name, raw)
	require.NoError(t, err)
	return tmpl
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"missing type", map[string]any{"direct_transition": "X"}},
		{"unknown type", map[string]any{"type": "Teleport", "direct_transition": "X"}},
		{"missing transition", map[string]any{"type": "Simple"}},
		{"two transitions", map[string]any{"type": "Simple", "direct_transition": "X", "distributed_transition": []any{map[string]any{"distribution": 1.0, "transition": "Y"}}}},
		{"terminal with transition", map[string]any{"type": "Terminal", "direct_transition": "X"}},
		{"delay without amount", map[string]any{"type": "Delay", "direct_transition": "X"}},
		{"delay unknown unit", map[string]any{"type": "Delay", "exact": map[string]any{"quantity": 1, "unit": "fortnights"}, "direct_transition": "X"}},
		{"inverted range", map[string]any{"type": "Delay", "range": map[string]any{"low": 5, "high": 1, "unit": "days"}, "direct_transition": "X"}},
		{"guard without allow", map[string]any{"type": "Guard", "direct_transition": "X"}},
		{"bad operator", map[string]any{"type": "Guard", "allow": map[string]any{"condition_type": "Attribute", "attribute": "a", "operator": "~"}, "direct_transition": "X"}},
		{"non scalar value", map[string]any{"type": "SetAttribute", "attribute": "a", "value": []any{1}, "direct_transition": "X"}},
		{"distribution overflow", map[string]any{"type": "Simple", "distributed_transition": []any{
			map[string]any{"distribution": 0.7, "transition": "A"},
			map[string]any{"distribution": 0.7, "transition": "B"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := state.Build("Test", "S", tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestClone_IsolatesInstances(t *testing.T) {
	tmpl := mustBuild(t, "Wait", map[string]any{
		"type":              "Delay",
		"exact":             map[string]any{"quantity": 2, "unit": "days"},
		"direct_transition": "Done",
	})

	p := domain.NewPerson("p1", 1)
	a := tmpl.Clone()
	b := tmpl.Clone()
	require.NotSame(t, a, b)

	assert.False(t, a.Run(p, epoch))
	_, entered := b.Entered()
	assert.False(t, entered, "running one clone must not touch another")

	assert.True(t, a.Run(p, epoch.Add(72*time.Hour)))
	exited, ok := a.Exited()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(48*time.Hour), exited, "delay exits when the wait elapsed, not when observed")

	fresh := tmpl.Clone()
	_, ok = fresh.Exited()
	assert.False(t, ok, "template must stay pristine")
}

func TestTerminal(t *testing.T) {
	tmpl := mustBuild(t, "End", map[string]any{"type": "Terminal"})
	inst := tmpl.Clone()

	assert.True(t, inst.Terminal())
	assert.False(t, inst.Run(domain.NewPerson("p", 1), epoch))
	_, err := inst.Transition(domain.NewPerson("p", 1), epoch)
	assert.True(t, errors.Is(err, domain.ErrNoTransition))
	assert.Empty(t, tmpl.Targets())
}

func TestGuardAndSetAttribute(t *testing.T) {
	set := mustBuild(t, "Mark", map[string]any{
		"type": "SetAttribute", "attribute": "smoker", "value": true, "direct_transition": "Check",
	})
	guard := mustBuild(t, "Check", map[string]any{
		"type": "Guard",
		"allow": map[string]any{
			"condition_type": "And",
			"conditions": []any{
				map[string]any{"condition_type": "Attribute", "attribute": "smoker", "operator": "==", "value": true},
				map[string]any{"condition_type": "Not", "condition": map[string]any{
					"condition_type": "Attribute", "attribute": "age", "operator": "<", "value": 18,
				}},
			},
		},
		"direct_transition": "End",
	})

	p := domain.NewPerson("p", 1)
	p.Attributes["age"] = 12

	g := guard.Clone()
	assert.False(t, g.Run(p, epoch), "guard blocks before the attribute exists")

	require.True(t, set.Clone().Run(p, epoch))
	assert.Equal(t, true, p.Attributes["smoker"])
	assert.False(t, g.Run(p, epoch), "age condition still blocks")

	p.Attributes["age"] = 30.0
	assert.True(t, g.Run(p, epoch.Add(time.Hour)))
	next, err := g.Transition(p, epoch)
	require.NoError(t, err)
	assert.Equal(t, "End", next)
}

func TestConditionalTransition(t *testing.T) {
	tmpl := mustBuild(t, "Fork", map[string]any{
		"type": "Simple",
		"conditional_transition": []any{
			map[string]any{"condition": map[string]any{"condition_type": "Attribute", "attribute": "gender", "operator": "==", "value": "F"}, "transition": "Female"},
			map[string]any{"transition": "Other"},
		},
	})
	assert.Equal(t, []string{"Female", "Other"}, tmpl.Targets())

	p := domain.NewPerson("p", 1)
	p.Attributes["gender"] = "F"
	next, err := tmpl.Clone().Transition(p, epoch)
	require.NoError(t, err)
	assert.Equal(t, "Female", next)

	p.Attributes["gender"] = "M"
	next, err = tmpl.Clone().Transition(p, epoch)
	require.NoError(t, err)
	assert.Equal(t, "Other", next)
}

func TestDistributedTransition_UsesPersonSource(t *testing.T) {
	tmpl := mustBuild(t, "Coin", map[string]any{
		"type": "Simple",
		"distributed_transition": []any{
			map[string]any{"distribution": 0.5, "transition": "Heads"},
			map[string]any{"distribution": 0.5, "transition": "Tails"},
		},
	})

	draw := func(seed uint64) []string {
		p := domain.NewPerson("p", seed)
		var out []string
		for range 20 {
			next, err := tmpl.Clone().Transition(p, epoch)
			require.NoError(t, err)
			out = append(out, next)
		}
		return out
	}

	assert.Equal(t, draw(42), draw(42), "same seed must replay the same draws")
	assert.Subset(t, []string{"Heads", "Tails"}, draw(7))
}

func TestEncounter_WaitsForScopedFlag(t *testing.T) {
	tmpl := mustBuild(t, "Checkup", map[string]any{
		"type": "Encounter", "wellness": true, "assign_to_attribute": "last_checkup", "direct_transition": "End",
	})
	p := domain.NewPerson("p", 1)

	inst := tmpl.Clone()
	assert.False(t, inst.Run(p, epoch))

	p.SetActiveWellnessEncounter(true)
	release := p.EnterEncounterScope("Test")
	assert.True(t, inst.Run(p, epoch.Add(time.Hour)))
	assert.Equal(t, epoch.Add(time.Hour), p.Attributes["last_checkup"])

	release()
	assert.False(t, p.InEncounterScope("Test"))
}

func TestHistory_NewestFirst(t *testing.T) {
	a := mustBuild(t, "A", map[string]any{"type": "Initial", "direct_transition": "B"})
	b := mustBuild(t, "B", map[string]any{"type": "Terminal"})

	p := domain.NewPerson("p", 1)
	require.Nil(t, state.HistoryOf(p, "Test"))

	h := state.StartHistory(p, "Test", a.Clone())
	h.Current().Run(p, epoch)
	h.Push(b.Clone())

	assert.Same(t, h, state.HistoryOf(p, "Test"))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "B", h.At(0).Name())
	assert.Equal(t, []string{"B", "A"}, h.Names())

	records := h.Records()
	require.Len(t, records, 2)
	assert.Nil(t, records[0].Entered)
	require.NotNil(t, records[1].Exited)
	assert.Equal(t, epoch, *records[1].Exited)

	snap := state.Snapshot(p, epoch, "Test", "Unknown")
	assert.Equal(t, "p", snap.PersonID)
	require.Contains(t, snap.Modules, "Test")
	assert.NotContains(t, snap.Modules, "Unknown")
	assert.True(t, snap.Modules["Test"].Completed)
	assert.Equal(t, "B", snap.Modules["Test"].Current())
}

func TestBuild_RejectsDerivedAttributes(t *testing.T) {
	for _, raw := range []map[string]any{
		{"type": "SetAttribute", "attribute": domain.HistoryKey("Asthma"), "value": "x", "direct_transition": "X"},
		{"type": "SetAttribute", "attribute": domain.EncounterScopeKey("Asthma"), "value": true, "direct_transition": "X"},
		{"type": "Encounter", "assign_to_attribute": domain.HistoryKey("Test"), "direct_transition": "X"},
	} {
		_, err := state.Build("Test", "S", raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDerivedAttribute), err.Error())
	}
}

func TestLookupHistory_OccupiedKey(t *testing.T) {
	p := domain.NewPerson("p", 1)
	p.Attributes[domain.HistoryKey("Test")] = "not a history"

	h, err := state.LookupHistory(p, "Test")
	assert.Nil(t, h)
	assert.True(t, errors.Is(err, domain.ErrDerivedAttribute))
	assert.Nil(t, state.HistoryOf(p, "Test"))
}
