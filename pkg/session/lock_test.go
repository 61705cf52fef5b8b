package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/cohort/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(context.Context, domain.Snapshot) error { return nil }
func (nopStore) Load(context.Context, string) (domain.Snapshot, error) {
	return domain.Snapshot{}, nil
}
func (nopStore) Delete(context.Context, string) error   { return nil }
func (nopStore) List(context.Context) ([]string, error) { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("person-%d", i)
		_ = mgr.Save(ctx, domain.Snapshot{PersonID: id})
		_ = mgr.Delete(ctx, id)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("memory leak: %d locks remaining after Delete", n)
	}
}
