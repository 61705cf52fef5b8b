package state

import (
	"fmt"

	"github.com/aretw0/cohort/pkg/domain"
)

// History is the ordered record of instances entered by one person in one module.
// Index 0 is the active state. It only grows.
type History struct {
	// stored oldest first so that Push is an append
	entries []Instance
}

// NewHistory creates a history whose only entry is first.
func NewHistory(first Instance) *History {
	return &History{entries: []Instance{first}}
}

// Push makes inst the active state.
func (h *History) Push(inst Instance) {
	h.entries = append(h.entries, inst)
}

// Current returns the active state.
func (h *History) Current() Instance {
	return h.entries[len(h.entries)-1]
}

// At returns the i-th entry, newest first.
func (h *History) At(i int) Instance {
	return h.entries[len(h.entries)-1-i]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Names returns the state names, newest first.
func (h *History) Names() []string {
	names := make([]string, len(h.entries))
	for i := range h.entries {
		names[i] = h.At(i).Name()
	}
	return names
}

// Records converts the history into its persisted form, newest first.
func (h *History) Records() []domain.StateRecord {
	records := make([]domain.StateRecord, len(h.entries))
	for i := range h.entries {
		inst := h.At(i)
		rec := domain.StateRecord{Name: inst.Name(), Kind: string(inst.Kind())}
		if t, ok := inst.Entered(); ok {
			rec.Entered = &t
		}
		if t, ok := inst.Exited(); ok {
			rec.Exited = &t
		}
		records[i] = rec
	}
	return records
}

// HistoryOf returns the person's history for module, or nil if they never ran it
// or the history key holds something else.
func HistoryOf(p *domain.Person, module string) *History {
	h, _ := LookupHistory(p, module)
	return h
}

// LookupHistory is HistoryOf with an error when the history key is occupied by
// a value that is not a history.
func LookupHistory(p *domain.Person, module string) (*History, error) {
	key := domain.HistoryKey(module)
	v, ok := p.Attributes[key]
	if !ok {
		return nil, nil
	}
	h, ok := v.(*History)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %T, not a history", domain.ErrDerivedAttribute, key, v)
	}
	return h, nil
}

// StartHistory stores a new history for module on the person and returns it.
func StartHistory(p *domain.Person, module string, first Instance) *History {
	h := NewHistory(first)
	p.Attributes[domain.HistoryKey(module)] = h
	return h
}
