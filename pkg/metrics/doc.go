// Package metrics provides Prometheus instrumentation for golazy components.
//
// The package exposes a central Registry of collectors used by the
// metrics-enabled constructors across the library.
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	// Instance holder with metrics
//	holder := instance.NewWithMetrics(openPool, "db_pool")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//
//	holder := instance.NewWithConfigAndMetrics(
//		instance.Config[*Pool]{Factory: openPool},
//		"db_pool",
//		config,
//	)
//
// # Available Metrics
//
// Initialization metrics (labels: strategy, holder_name):
//
//   - golazy_init_attempts_total: Total number of factory executions attempted
//   - golazy_init_success_total: Total number of successful factory executions
//   - golazy_init_failures_total: Total number of failed factory executions
//   - golazy_init_duration_seconds: Time spent constructing instances
//   - golazy_init_initialized: Whether the instance currently exists (0 or 1)
//   - golazy_init_accesses_total: Total number of accesses to the holder
//
// Registry metrics (label: registry_name):
//
//   - golazy_registry_entries: Number of entries currently in the registry
//   - golazy_registry_hits_total: Lookups that found an existing entry
//   - golazy_registry_misses_total: Lookups that did not find an entry
//
// Distributed once metrics (label: once_key):
//
//   - golazy_distributed_claim_attempts_total: Distributed claim attempts
//   - golazy_distributed_claim_wins_total: Claims won by this instance
//   - golazy_distributed_claim_waits_total: Waits for another instance's claim
//
// # Runtime Control
//
// Components implementing the Instrumentable interface support runtime control:
//
//	holder.DisableMetrics()            // Stop collecting metrics
//	holder.EnableMetrics(config)       // Re-enable with new config
//	enabled := holder.MetricsEnabled() // Check current state
package metrics
