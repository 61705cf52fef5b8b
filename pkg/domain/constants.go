package domain

import "strings"

// Attribute keys shared between modules and the collaborators that schedule encounters.
const (
	// ActiveWellnessEncounter is set on a person while a wellness encounter is in progress.
	ActiveWellnessEncounter = "active_wellness_encounter"

	// InitialStateName is the mandatory entry state of every module.
	InitialStateName = "Initial"
)

// HistoryKey returns the attribute key under which a person's execution history
// for the named module is stored.
func HistoryKey(module string) string {
	return module + " Module"
}

// EncounterScopeKey returns the module-scoped mirror of ActiveWellnessEncounter,
// derived from the module's history key. It is only present for the duration
// of a single process call.
func EncounterScopeKey(module string) string {
	return ActiveWellnessEncounter + " " + HistoryKey(module)
}

// DerivedAttribute reports whether key is owned by the engine: a history key or
// a scoped encounter key. Module definitions may not write to these.
func DerivedAttribute(key string) bool {
	return strings.HasSuffix(key, " Module")
}
