package registry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/aretw0/cohort/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func def(name string) []byte {
	return []byte(`{"name": "` + name + `", "states": {
		"Initial": {"type": "Initial", "direct_transition": "Terminal"},
		"Terminal": {"type": "Terminal"}
	}}`)
}

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func TestRegistry_LoadsLibraryFromDisk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "appendicitis.json", def("Appendicitis"))
	writeFile(t, root, "asthma.yaml", []byte(`
name: Asthma
states:
  Initial: {type: Initial, direct_transition: Terminal}
  Terminal: {type: Terminal}
`))
	writeFile(t, root, "medications/otc_antihistamine.json", def("OTC Antihistamine"))
	writeFile(t, root, "README.md", []byte("# not a module"))

	reg := registry.New(root)
	require.NoError(t, reg.Load(context.Background()))

	m, err := reg.Get("appendicitis")
	require.NoError(t, err)
	assert.Equal(t, "Appendicitis", m.Name())
	assert.False(t, m.Submodule())

	sub, err := reg.Get("medications/otc_antihistamine")
	require.NoError(t, err)
	assert.True(t, sub.Submodule())
	assert.Equal(t, "medications/otc_antihistamine", sub.Key())

	builtin, err := reg.Get("Lifecycle")
	require.NoError(t, err)
	assert.Equal(t, "Lifecycle", builtin.Name())

	names := reg.ListNames()
	assert.Contains(t, names, "medications/otc_antihistamine")
	assert.Contains(t, names, "asthma")
	assert.NotContains(t, names, "README")

	for _, top := range reg.ListTopLevel() {
		assert.False(t, top.Submodule(), top.Key())
		assert.NotEqual(t, "medications/otc_antihistamine", top.Key())
	}
}

func TestRegistry_MalformedFileIsSkipped(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json":        {Data: def("A")},
		"b.json":        {Data: def("B")},
		"c/d.json":      {Data: def("D")},
		"broken.json":   {Data: []byte(`{"name": "Broken", "states": {`)},
		"dangling.yaml": {Data: []byte("name: Dangling\nstates:\n  Initial: {type: Initial, direct_transition: Nowhere}\n")},
	}

	reg := registry.New("", registry.WithFS(fsys))
	require.NoError(t, reg.Load(context.Background()))

	report := reg.Report()
	assert.ElementsMatch(t, []string{"a", "b", "c/d"}, report.Loaded)
	assert.Contains(t, report.Failed, "broken.json")
	assert.Contains(t, report.Failed, "dangling.yaml")
	assert.Len(t, reg.ListNames(), 3+len(report.Builtins))

	_, err := reg.Get("broken")
	assert.True(t, errors.Is(err, domain.ErrModuleNotFound))
}

func TestRegistry_NotFound(t *testing.T) {
	reg := registry.New("", registry.WithFS(fstest.MapFS{}), registry.WithoutBuiltins())

	_, err := reg.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrModuleNotFound))
	assert.Empty(t, reg.ListNames())
	assert.Empty(t, reg.ListTopLevel())
}

func TestRegistry_MissingRootKeepsBuiltins(t *testing.T) {
	reg := registry.New(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, reg.Load(context.Background()))

	report := reg.Report()
	assert.NotEmpty(t, report.Builtins)
	assert.Empty(t, report.Loaded)
	assert.ElementsMatch(t, report.Builtins, reg.ListNames())
	assert.Contains(t, report.Builtins, "Lifecycle")
	assert.Contains(t, report.Builtins, "Wellness Encounters")
}

func TestRegistry_KeyCollision(t *testing.T) {
	fsys := fstest.MapFS{
		"dup.json": {Data: def("First")},
		"dup.yaml": {Data: []byte("name: Second\nstates:\n  Initial: {type: Initial, direct_transition: End}\n  End: {type: Terminal}\n")},
	}
	reg := registry.New("", registry.WithFS(fsys), registry.WithoutBuiltins())

	m, err := reg.Get("dup")
	require.NoError(t, err)
	assert.Equal(t, "First", m.Name())
	assert.Contains(t, reg.Report().Failed, "dup.yaml")
}

func TestRegistry_WithBuiltin(t *testing.T) {
	b := module.NewBuilder("Custom")
	b.State("Initial").Initial().Go("End")
	b.State("End").Terminal()
	custom, err := b.Build("custom")
	require.NoError(t, err)

	fsys := fstest.MapFS{"custom.json": {Data: def("Shadow")}}
	reg := registry.New("", registry.WithFS(fsys), registry.WithoutBuiltins(), registry.WithBuiltin(custom))

	got, err := reg.Get("custom")
	require.NoError(t, err)
	assert.Same(t, custom, got, "built-ins are registered before the library and win collisions")
	assert.Contains(t, reg.Report().Failed, "custom.json")
}

func TestRegistry_ConcurrentFirstAccessLoadsOnce(t *testing.T) {
	fsys := fstest.MapFS{"a.json": {Data: def("A")}}
	reg := registry.New("", registry.WithFS(fsys))

	const readers = 32
	got := make([]*module.Module, readers)
	var wg sync.WaitGroup
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := reg.Get("a")
			if err == nil {
				got[i] = m
			}
		}()
	}
	wg.Wait()

	require.NotNil(t, got[0])
	for i := 1; i < readers; i++ {
		assert.Same(t, got[0], got[i])
	}
}

func TestRegistry_CancelledLoadIsRetried(t *testing.T) {
	fsys := fstest.MapFS{"a.json": {Data: def("A")}}
	reg := registry.New("", registry.WithFS(fsys))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := reg.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	require.NoError(t, reg.Load(context.Background()))
	m, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "A", m.Name())
	assert.Contains(t, reg.ListNames(), "a")
	assert.Equal(t, []string{"a"}, reg.Report().Loaded)
}

func TestRegistry_LookupAfterCancelledLoad(t *testing.T) {
	fsys := fstest.MapFS{"a.json": {Data: def("A")}}
	reg := registry.New("", registry.WithFS(fsys), registry.WithoutBuiltins())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, reg.Load(ctx))

	// Lookups load on their own and never see the abandoned partial catalog.
	m, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "A", m.Name())
	assert.Equal(t, []string{"a"}, reg.ListNames())
}
