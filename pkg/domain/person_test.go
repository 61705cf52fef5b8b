package domain

import (
	"context"
	"testing"
)

func TestPerson_RandIsDeterministicPerSeed(t *testing.T) {
	a := NewPerson("a", 42)
	b := NewPerson("b", 42)
	c := NewPerson("c", 43)

	for i := 0; i < 5; i++ {
		x, y := a.Rand().Float64(), b.Rand().Float64()
		if x != y {
			t.Fatalf("draw %d: same seed produced %v and %v", i, x, y)
		}
	}
	if NewPerson("a", 42).Rand().Uint64() == c.Rand().Uint64() {
		t.Error("different seeds produced the same first draw")
	}
}

func TestPerson_WellnessSignal(t *testing.T) {
	p := NewPerson("p", 1)
	if p.ActiveWellnessEncounter() {
		t.Fatal("new person should not be in a wellness encounter")
	}

	p.SetActiveWellnessEncounter(true)
	if !p.ActiveWellnessEncounter() {
		t.Fatal("signal not set")
	}

	p.SetActiveWellnessEncounter(false)
	if _, ok := p.Attributes[ActiveWellnessEncounter]; ok {
		t.Error("clearing the signal should remove the attribute")
	}
}

func TestPerson_EncounterScope(t *testing.T) {
	p := NewPerson("p", 1)

	release := p.EnterEncounterScope("Asthma")
	if p.InEncounterScope("Asthma") {
		t.Error("scope set without the global signal")
	}
	release()

	p.SetActiveWellnessEncounter(true)
	release = p.EnterEncounterScope("Asthma")
	if !p.InEncounterScope("Asthma") {
		t.Error("scope not mirrored from the global signal")
	}
	if p.InEncounterScope("Diabetes") {
		t.Error("scope leaked into another module")
	}
	release()

	if p.InEncounterScope("Asthma") {
		t.Error("release did not clear the scope")
	}
	if !p.ActiveWellnessEncounter() {
		t.Error("release must not touch the global signal")
	}
}

func TestKeys(t *testing.T) {
	if got := HistoryKey("Asthma"); got != "Asthma Module" {
		t.Errorf("HistoryKey = %q", got)
	}
	if got := EncounterScopeKey("Asthma"); got != "active_wellness_encounter Asthma Module" {
		t.Errorf("EncounterScopeKey = %q", got)
	}
	for key, want := range map[string]bool{
		HistoryKey("Asthma"):        true,
		EncounterScopeKey("Asthma"): true,
		ActiveWellnessEncounter:     false,
		"asthma_controller":         false,
	} {
		if got := DerivedAttribute(key); got != want {
			t.Errorf("DerivedAttribute(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestPerson_WellnessSignalIsPresence(t *testing.T) {
	p := NewPerson("p", 1)
	if p.ActiveWellnessEncounter() {
		t.Error("fresh person holds the signal")
	}
	p.Attributes[ActiveWellnessEncounter] = false
	if !p.ActiveWellnessEncounter() {
		t.Error("a present key must count as active, whatever its value")
	}
	p.SetActiveWellnessEncounter(false)
	if _, ok := p.Attributes[ActiveWellnessEncounter]; ok {
		t.Error("clearing the signal must remove the key")
	}
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{
		OnStateEnter: func(context.Context, *StateEvent) { calls = append(calls, "a.enter") },
		OnComplete:   func(context.Context, *CompleteEvent) { calls = append(calls, "a.complete") },
	}
	b := LifecycleHooks{
		OnStateEnter: func(context.Context, *StateEvent) { calls = append(calls, "b.enter") },
		OnRewind:     func(context.Context, *RewindEvent) { calls = append(calls, "b.rewind") },
	}

	m := a.Merge(b)
	ctx := context.Background()
	m.OnStateEnter(ctx, &StateEvent{})
	m.OnRewind(ctx, &RewindEvent{})
	m.OnComplete(ctx, &CompleteEvent{})

	want := []string{"a.enter", "b.enter", "b.rewind", "a.complete"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}

	if (LifecycleHooks{}).Merge(LifecycleHooks{}).OnRewind != nil {
		t.Error("merging empty hooks should leave callbacks nil")
	}
}

func TestModuleSnapshot_Current(t *testing.T) {
	if (ModuleSnapshot{}).Current() != "" {
		t.Error("empty trail should have no current state")
	}
	s := ModuleSnapshot{Trail: []StateRecord{{Name: "Wait"}, {Name: "Initial"}}}
	if s.Current() != "Wait" {
		t.Errorf("Current = %q", s.Current())
	}
}
