package observability

import (
	"context"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cohort"

// Metrics holds the Prometheus collectors fed by the engine.
type Metrics struct {
	StateEntries *prometheus.CounterVec
	Rewinds      *prometheus.CounterVec
	RewindDepth  prometheus.Histogram
	Completions  *prometheus.CounterVec
	Modules      *prometheus.GaugeVec
	LoadFailures prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StateEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_entries_total",
				Help:      "Total number of state instances entered",
			},
			[]string{"module", "kind"},
		),
		Rewinds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rewinds_total",
				Help:      "Total number of delay rewinds",
			},
			[]string{"module"},
		),
		RewindDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rewind_depth",
				Help:      "Nesting depth reached by delay rewinds",
				Buckets:   []float64{1, 2, 4, 8, 16, 64, 256, 1024},
			},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "module_completions_total",
				Help:      "Total number of modules that reached a terminal state",
			},
			[]string{"module"},
		),
		Modules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_modules",
				Help:      "Modules in the registry by origin",
			},
			[]string{"source"},
		),
		LoadFailures: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_load_failures",
				Help:      "Definition files skipped during the registry load",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.StateEntries, m.Rewinds, m.RewindDepth, m.Completions, m.Modules, m.LoadFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.StateEntries.WithLabelValues(e.Module, e.Kind).Inc()
		},
		OnRewind: func(_ context.Context, e *domain.RewindEvent) {
			m.Rewinds.WithLabelValues(e.Module).Inc()
			m.RewindDepth.Observe(float64(e.Depth))
		},
		OnComplete: func(_ context.Context, e *domain.CompleteEvent) {
			m.Completions.WithLabelValues(e.Module).Inc()
		},
	}
}

// ObserveLoad records the outcome of a registry load.
func (m *Metrics) ObserveLoad(report registry.LoadReport) {
	m.Modules.WithLabelValues("builtin").Set(float64(len(report.Builtins)))
	m.Modules.WithLabelValues("library").Set(float64(len(report.Loaded)))
	m.LoadFailures.Set(float64(len(report.Failed)))
}
