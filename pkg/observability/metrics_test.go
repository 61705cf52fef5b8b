package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/cohort/internal/runtime"
	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/module"
	"github.com/aretw0/cohort/pkg/observability"
	"github.com/aretw0/cohort/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)

func chain(t *testing.T) *module.Module {
	t.Helper()
	b := module.NewBuilder("Chain")
	b.State("Initial").Initial().Go("A")
	b.State("A").Delay(1, "days").Go("B")
	b.State("B").Delay(1, "days").Go("End")
	b.State("End").Terminal()
	m, err := b.Build("chain")
	require.NoError(t, err)
	return m
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithLifecycleHooks(metrics.Hooks()))
	m := chain(t)
	p := domain.NewPerson("p1", 1)
	ctx := context.Background()

	_, err = engine.Process(ctx, p, m, t0)
	require.NoError(t, err)
	done, err := engine.Process(ctx, p, m, t0.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.True(t, done)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StateEntries.WithLabelValues("Chain", "Delay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StateEntries.WithLabelValues("Chain", "Terminal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Rewinds.WithLabelValues("Chain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Completions.WithLabelValues("Chain")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.RewindDepth))
}

func TestMetrics_ObserveLoad(t *testing.T) {
	metrics, err := observability.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	metrics.ObserveLoad(registry.LoadReport{
		Builtins: []string{"Lifecycle", "Health Insurance"},
		Loaded:   []string{"asthma"},
		Failed:   map[string]error{"broken.json": errors.New("bad")},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Modules.WithLabelValues("builtin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Modules.WithLabelValues("library")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadFailures))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(observability.LoggingHooks(logger)))
	m := chain(t)
	p := domain.NewPerson("p1", 1)

	_, err := engine.Process(context.Background(), p, m, t0)
	require.NoError(t, err)
	_, err = engine.Process(context.Background(), p, m, t0.AddDate(0, 0, 30))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=state_enter")
	assert.Contains(t, out, "msg=rewind")
	assert.Contains(t, out, "msg=module_complete")
	assert.Contains(t, out, "person=p1")
}
