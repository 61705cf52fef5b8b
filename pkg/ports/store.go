package ports

import (
	"context"

	"github.com/aretw0/cohort/pkg/domain"
)

// SnapshotStore persists person snapshots keyed by person ID.
type SnapshotStore interface {
	// Save stores snap under snap.PersonID, replacing any previous snapshot.
	Save(ctx context.Context, snap domain.Snapshot) error

	// Load retrieves the snapshot of personID.
	// Returns domain.ErrSnapshotNotFound if there is none.
	Load(ctx context.Context, personID string) (domain.Snapshot, error)

	// Delete removes the snapshot of personID. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, personID string) error

	// List returns the IDs of every stored snapshot, sorted.
	List(ctx context.Context) ([]string, error)
}
