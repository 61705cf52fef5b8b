package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Snapshot),
	}
}

// Save persists a copy of snap.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	copied := clone(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.PersonID] = copied
	return nil
}

// Load returns a copy of the stored snapshot so callers cannot mutate the store.
func (s *Store) Load(ctx context.Context, personID string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[personID]
	if !ok {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	return clone(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, personID)
	return nil
}

// List returns the stored person IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func clone(snap domain.Snapshot) domain.Snapshot {
	out := snap
	out.Modules = make(map[string]domain.ModuleSnapshot, len(snap.Modules))
	for name, m := range snap.Modules {
		trail := make([]domain.StateRecord, len(m.Trail))
		for i, rec := range m.Trail {
			trail[i] = domain.StateRecord{
				Name:    rec.Name,
				Kind:    rec.Kind,
				Entered: cloneTime(rec.Entered),
				Exited:  cloneTime(rec.Exited),
			}
		}
		out.Modules[name] = domain.ModuleSnapshot{Completed: m.Completed, Trail: trail}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
