/*
Package observability turns engine lifecycle hooks into logs and Prometheus metrics.

Both are plain domain.LifecycleHooks values, so they can be merged and handed
to cohort.WithLifecycleHooks:

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
	eng, _ := cohort.New("./modules", cohort.WithLifecycleHooks(hooks))
*/
package observability
