/*
Package cohort is the execution core of a synthetic-population health simulator.

A library of module definitions (state machines written as JSON or YAML) is
compiled once into an immutable registry. The engine then advances each person
through a module at a simulated instant: it clones state templates into the
person's own history, follows transitions until a state blocks, and rewinds to
the exact moment a wait resolved when that moment lies between two ticks.

# Concept

Modules are templates shared by every person. Everything that changes during a
run (state instances, histories, attributes, the random source) belongs to a
single person, so people can be processed concurrently as long as one person is
never handled by two goroutines at once.

# Usage

	package main

	import (
		"context"
		"log"
		"time"

		"github.com/aretw0/cohort"
		"github.com/aretw0/cohort/pkg/domain"
	)

	func main() {
		eng, err := cohort.New("./modules")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		p := domain.NewPerson("patient-1", 42)
		start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

		for at := start; at.Before(start.AddDate(10, 0, 0)); at = at.AddDate(0, 0, 7) {
			done, err := eng.Process(ctx, p, "appendicitis", at)
			if err != nil {
				log.Fatal(err)
			}
			if done {
				break
			}
		}
	}

# Module library

Every *.json, *.yaml and *.yml file below the library root is a module, keyed
by its slash-separated path without extension. Files inside subdirectories are
submodules: they can be looked up by key but are not listed as top-level
modules. A file that fails to parse or validate is skipped and reported; it
never prevents the rest of the library from loading.
*/
package cohort
