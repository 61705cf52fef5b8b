// Package simulation drives a population through modules on a fixed clock.
//
// It stands in for the outer simulator: it creates people, ticks time forward,
// toggles the wellness signal the way an encounter scheduler would, and saves
// each person's snapshot when the run ends. One goroutine owns one person.
package simulation
