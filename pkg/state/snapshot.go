package state

import (
	"time"

	"github.com/aretw0/cohort/pkg/domain"
)

// Snapshot summarizes the person's histories for the given modules.
// Modules the person never ran are omitted.
func Snapshot(p *domain.Person, at time.Time, modules ...string) domain.Snapshot {
	snap := domain.Snapshot{
		PersonID: p.ID,
		Time:     at,
		Modules:  make(map[string]domain.ModuleSnapshot, len(modules)),
	}
	for _, name := range modules {
		h := HistoryOf(p, name)
		if h == nil {
			continue
		}
		snap.Modules[name] = domain.ModuleSnapshot{
			Completed: h.Current().Terminal(),
			Trail:     h.Records(),
		}
	}
	return snap
}
