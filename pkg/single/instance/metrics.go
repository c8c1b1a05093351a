package instance

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/golazy/pkg/metrics"
)

// MetricsHolder wraps a Holder with Prometheus metrics collection.
type MetricsHolder[T any] struct {
	holder   Holder[T]
	name     string
	strategy string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new holder with metrics enabled.
func NewWithMetrics[T any](factory Factory[T], name string) Holder[T] {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config[T]{Factory: factory}, name, config)
}

// NewWithConfigAndMetrics creates a new holder with custom config and metrics.
func NewWithConfigAndMetrics[T any](config Config[T], name string, metricsConfig metrics.Config) Holder[T] {
	baseHolder := NewWithConfig(config)

	if !metricsConfig.Enabled {
		return baseHolder
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		// Create custom registry if provided
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsHolder[T]{
		holder:   baseHolder,
		name:     name,
		strategy: config.Strategy.String(),
		registry: registry,
		enabled:  true,
	}
}

// Get returns the instance, creating it on first call.
func (mh *MetricsHolder[T]) Get() (T, error) {
	if !mh.enabled {
		return mh.holder.Get()
	}

	mh.registry.Accesses.WithLabelValues(mh.strategy, mh.name).Inc()

	initialized := mh.holder.Initialized()
	start := time.Now()

	v, err := mh.holder.Get()

	if !initialized {
		// This access may have run the factory; record it as an attempt.
		mh.registry.InitAttempts.WithLabelValues(mh.strategy, mh.name).Inc()
		mh.registry.InitDuration.WithLabelValues(mh.strategy, mh.name).Observe(time.Since(start).Seconds())

		if err == nil {
			mh.registry.InitSuccess.WithLabelValues(mh.strategy, mh.name).Inc()
		} else {
			mh.registry.InitFailures.WithLabelValues(mh.strategy, mh.name).Inc()
		}
	}

	mh.setInitializedGauge()
	return v, err
}

// MustGet returns the instance or panics if creation fails.
func (mh *MetricsHolder[T]) MustGet() T {
	v, err := mh.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Peek returns the instance without triggering creation.
func (mh *MetricsHolder[T]) Peek() (T, bool) {
	if mh.enabled {
		mh.registry.Accesses.WithLabelValues(mh.strategy, mh.name).Inc()
	}
	return mh.holder.Peek()
}

// Set populates the holder eagerly.
func (mh *MetricsHolder[T]) Set(value T) error {
	err := mh.holder.Set(value)
	if mh.enabled {
		mh.setInitializedGauge()
	}
	return err
}

// Initialized reports whether the instance has been created.
func (mh *MetricsHolder[T]) Initialized() bool {
	return mh.holder.Initialized()
}

// Reset discards the instance and re-arms the holder.
func (mh *MetricsHolder[T]) Reset() {
	mh.holder.Reset()
	if mh.enabled {
		mh.setInitializedGauge()
	}
}

func (mh *MetricsHolder[T]) setInitializedGauge() {
	if mh.holder.Initialized() {
		mh.registry.Initialized.WithLabelValues(mh.strategy, mh.name).Set(1)
	} else {
		mh.registry.Initialized.WithLabelValues(mh.strategy, mh.name).Set(0)
	}
}

// EnableMetrics enables metrics collection.
func (mh *MetricsHolder[T]) EnableMetrics(config metrics.Config) error {
	mh.enabled = config.Enabled

	if config.Registry != nil {
		mh.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mh *MetricsHolder[T]) DisableMetrics() {
	mh.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mh *MetricsHolder[T]) MetricsEnabled() bool {
	return mh.enabled
}
