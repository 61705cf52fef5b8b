package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cohort/internal/logging"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/ports"
)

// DefaultLockTTL is how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager guards per-person work and snapshot persistence.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active per-person locks

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and call release(personID) after unlocking.
func (m *Manager) acquire(personID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[personID]
	if !exists {
		entry = &lockEntry{}
		m.locks[personID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(personID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[personID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, personID)
	}
}

// Load retrieves the stored snapshot of personID.
func (m *Manager) Load(ctx context.Context, personID string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := m.WithLock(ctx, personID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, personID)
		return err
	})
	return snap, err
}

// Save persists snap under its person ID.
func (m *Manager) Save(ctx context.Context, snap domain.Snapshot) error {
	return m.WithLock(ctx, snap.PersonID, func(ctx context.Context) error {
		return m.store.Save(ctx, snap)
	})
}

// Delete removes the snapshot of personID.
func (m *Manager) Delete(ctx context.Context, personID string) error {
	return m.WithLock(ctx, personID, func(ctx context.Context) error {
		return m.store.Delete(ctx, personID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock runs fn while holding the lock for personID. Calls for the same
// person are serialized; calls for different people run in parallel.
func (m *Manager) WithLock(ctx context.Context, personID string, fn func(context.Context) error) error {
	entry := m.acquire(personID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(personID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "person:"+personID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"person", personID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
