// Package metrics provides Prometheus instrumentation for golazy components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for golazy components.
type Registry struct {
	// Initialization Metrics
	InitAttempts *prometheus.CounterVec
	InitSuccess  *prometheus.CounterVec
	InitFailures *prometheus.CounterVec
	InitDuration *prometheus.HistogramVec
	Initialized  *prometheus.GaugeVec
	Accesses     *prometheus.CounterVec

	// Registry Metrics
	RegistryEntries *prometheus.GaugeVec
	RegistryHits    *prometheus.CounterVec
	RegistryMisses  *prometheus.CounterVec

	// Distributed Once Metrics
	ClaimAttempts *prometheus.CounterVec
	ClaimWins     *prometheus.CounterVec
	ClaimWaits    *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by golazy components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Initialization Metrics
		InitAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "init",
				Name:      "attempts_total",
				Help:      "Total number of factory executions attempted",
			},
			[]string{"strategy", "holder_name"},
		),

		InitSuccess: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "init",
				Name:      "success_total",
				Help:      "Total number of successful factory executions",
			},
			[]string{"strategy", "holder_name"},
		),

		InitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "init",
				Name:      "failures_total",
				Help:      "Total number of failed factory executions",
			},
			[]string{"strategy", "holder_name"},
		),

		InitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "golazy",
				Subsystem: "init",
				Name:      "duration_seconds",
				Help:      "Time spent constructing instances",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"strategy", "holder_name"},
		),

		Initialized: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "golazy",
				Subsystem: "init",
				Name:      "initialized",
				Help:      "Whether the instance currently exists (0 or 1)",
			},
			[]string{"strategy", "holder_name"},
		),

		Accesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "init",
				Name:      "accesses_total",
				Help:      "Total number of accesses to the holder",
			},
			[]string{"strategy", "holder_name"},
		),

		// Registry Metrics
		RegistryEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "golazy",
				Subsystem: "registry",
				Name:      "entries",
				Help:      "Number of entries currently in the registry",
			},
			[]string{"registry_name"},
		),

		RegistryHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "registry",
				Name:      "hits_total",
				Help:      "Total number of lookups that found an existing entry",
			},
			[]string{"registry_name"},
		),

		RegistryMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "registry",
				Name:      "misses_total",
				Help:      "Total number of lookups that did not find an entry",
			},
			[]string{"registry_name"},
		),

		// Distributed Once Metrics
		ClaimAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "distributed",
				Name:      "claim_attempts_total",
				Help:      "Total number of distributed claim attempts",
			},
			[]string{"once_key"},
		),

		ClaimWins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "distributed",
				Name:      "claim_wins_total",
				Help:      "Total number of claims won by this instance",
			},
			[]string{"once_key"},
		),

		ClaimWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "golazy",
				Subsystem: "distributed",
				Name:      "claim_waits_total",
				Help:      "Total number of waits for another instance's claim",
			},
			[]string{"once_key"},
		),
	}
}
