package distributed

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/golazy/pkg/metrics"
)

// Once coordinates at-most-once execution across application instances
// using Redis as the coordination backend.
type Once interface {
	// Do executes fn if no instance in the fleet has completed it yet.
	// Exactly one instance runs fn; others block until it finishes or
	// their context is canceled. If the running instance fails or
	// crashes, its claim expires and another instance may retry.
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// Done reports whether fn has been completed by any instance.
	Done(ctx context.Context) (bool, error)

	// Performer returns the ID of the instance that completed fn, or an
	// empty string if it has not completed.
	Performer(ctx context.Context) (string, error)

	// Stats returns coordination statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Reset clears the completion state (useful for testing).
	Reset(ctx context.Context) error

	// Close releases local resources. The Redis client is caller-owned
	// and is not closed.
	Close() error
}

// Stats holds distributed once statistics.
type Stats struct {
	Done            bool
	Performer       string
	ClaimAttempts   int64
	ClaimWins       int64
	ClaimWaits      int64
	ActiveInstances []string
}

// Config holds configuration for the distributed once.
type Config struct {
	// Redis client for coordination
	Redis redis.UniversalClient

	// Key is the Redis key prefix for this once
	Key string

	// InstanceID uniquely identifies this application instance
	InstanceID string

	// ClaimTTL is how long a claim survives without completion. A crashed
	// claimant's claim expires after this, letting another instance retry.
	ClaimTTL time.Duration

	// RedisTimeout is the timeout for individual Redis operations
	RedisTimeout time.Duration

	// PollInterval controls how often waiting instances re-check progress
	PollInterval time.Duration

	// KeyTTL is how long the completion marker should live
	KeyTTL time.Duration

	// FallbackToLocal degrades to a process-local once when Redis is
	// unavailable. The at-most-once guarantee then only covers this
	// process.
	FallbackToLocal bool
}

// DefaultConfig returns a default distributed once configuration.
func DefaultConfig() Config {
	return Config{
		InstanceID:      generateInstanceID(),
		ClaimTTL:        30 * time.Second,
		RedisTimeout:    500 * time.Millisecond,
		PollInterval:    100 * time.Millisecond,
		KeyTTL:          24 * time.Hour,
		FallbackToLocal: true,
	}
}

// New creates a distributed once with the given config.
func New(config Config) (Once, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	config = applyConfigDefaults(config)

	return newRedisOnce(config)
}

// NewWithMetrics creates a distributed once with metrics enabled.
func NewWithMetrics(config Config, metricsConfig metrics.Config) (Once, error) {
	once, err := New(config)
	if err != nil {
		return nil, err
	}

	ro := once.(*redisOnce)
	if metricsConfig.Enabled {
		registry := metrics.DefaultRegistry
		if metricsConfig.Registry != nil {
			registry = metrics.NewRegistry(metricsConfig.Registry)
		}
		ro.metrics = registry
	}

	return ro, nil
}

// validateConfig validates the once configuration.
func validateConfig(config Config) error {
	if config.Redis == nil {
		return &ConfigError{"redis client is required"}
	}
	if config.Key == "" {
		return &ConfigError{"key is required"}
	}
	if config.ClaimTTL < 0 || config.RedisTimeout < 0 || config.PollInterval < 0 || config.KeyTTL < 0 {
		return &ConfigError{"durations cannot be negative"}
	}
	return nil
}

// applyConfigDefaults sets default values for unspecified config fields.
func applyConfigDefaults(config Config) Config {
	if config.InstanceID == "" {
		config.InstanceID = generateInstanceID()
	}
	if config.ClaimTTL == 0 {
		config.ClaimTTL = 30 * time.Second
	}
	if config.RedisTimeout == 0 {
		config.RedisTimeout = 500 * time.Millisecond
	}
	if config.PollInterval == 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.KeyTTL == 0 {
		config.KeyTTL = 24 * time.Hour
	}
	return config
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "distributed once config error: " + e.Message
}

// RedisError represents a Redis operation error.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "redis error in " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}
