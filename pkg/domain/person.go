package domain

import (
	"math/rand/v2"
)

// Person is the entity advanced through modules by the engine.
//
// A Person is owned by exactly one goroutine at a time: nothing here is
// synchronized, and every value stored in Attributes belongs to this person only.
type Person struct {
	// ID identifies the person in snapshots and logs.
	ID string

	// Attributes is the open map shared by every module the person runs.
	// Modules communicate through it; the engine keeps one history per module here.
	Attributes map[string]any

	rng *rand.Rand
}

// NewPerson creates a person with an empty attribute map and a deterministic random source.
func NewPerson(id string, seed uint64) *Person {
	return &Person{
		ID:         id,
		Attributes: make(map[string]any),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Rand returns the person's private random source.
// States that draw random values must use it so runs stay reproducible per seed.
func (p *Person) Rand() *rand.Rand {
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(0, 0))
	}
	return p.rng
}

// ActiveWellnessEncounter reports whether the global wellness signal is set.
// The key's presence is the signal; its value is ignored.
func (p *Person) ActiveWellnessEncounter() bool {
	_, ok := p.Attributes[ActiveWellnessEncounter]
	return ok
}

// SetActiveWellnessEncounter sets or clears the global wellness signal.
func (p *Person) SetActiveWellnessEncounter(active bool) {
	if active {
		p.Attributes[ActiveWellnessEncounter] = true
		return
	}
	delete(p.Attributes, ActiveWellnessEncounter)
}

// InEncounterScope reports whether the module-scoped wellness flag is set for module.
func (p *Person) InEncounterScope(module string) bool {
	_, ok := p.Attributes[EncounterScopeKey(module)]
	return ok
}

// EnterEncounterScope mirrors the global wellness signal into the scoped key of module.
// The returned release func always clears the scoped key, whether or not it was set.
func (p *Person) EnterEncounterScope(module string) (release func()) {
	key := EncounterScopeKey(module)
	if p.ActiveWellnessEncounter() {
		p.Attributes[key] = true
	}
	return func() {
		delete(p.Attributes, key)
	}
}
